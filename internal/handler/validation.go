package handler

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var personNamePattern = regexp.MustCompile(`^[a-zA-ZÀ-ÿ\s'-]+$`)

// RegisterValidators adds the custom tags used by request bodies to gin's
// validator. It is safe to call more than once.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected gin validator engine")
	}
	return v.RegisterValidation("personname", func(fl validator.FieldLevel) bool {
		return personNamePattern.MatchString(fl.Field().String())
	})
}

// fieldMessages are the user-facing messages per field and failed tag.
var fieldMessages = map[string]map[string]string{
	"Name": {
		"required":   "Nome é obrigatório",
		"min":        "Nome deve ter pelo menos 2 caracteres",
		"max":        "Nome deve ter no máximo 100 caracteres",
		"personname": "Nome contém caracteres inválidos",
	},
	"Email": {
		"required": "Email é obrigatório",
		"email":    "Email inválido",
		"max":      "Email muito longo",
	},
	"Company": {
		"required": "Nome da empresa é obrigatório",
		"min":      "Nome da empresa deve ter pelo menos 2 caracteres",
		"max":      "Nome da empresa deve ter no máximo 200 caracteres",
	},
}

// validationMessage joins the messages of every failed field.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "corpo da requisição inválido"
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if msg, ok := fieldMessages[fe.Field()][fe.Tag()]; ok {
			msgs = append(msgs, msg)
			continue
		}
		// Answers: Q1..Q4
		msgs = append(msgs, fmt.Sprintf("Resposta %s inválida", strings.ToLower(fe.Field())))
	}
	return strings.Join(msgs, ", ")
}
