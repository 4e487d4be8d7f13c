package model

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

const (
	validationTagRequired = "required"
	validationTagMin      = "min"
	validationTagMax      = "max"
	validationTagOneOf    = "oneof"
	validationTagURL      = "url"
	validationTagEmail    = "email"

	fallbackFieldMessage = "Campo inválido"
	jsonTagName          = "json"
	jsonTagIgnored       = "-"
)

// ErrInvalidDraft indicates a draft failed field validation.
var ErrInvalidDraft = errors.New("invalid_draft")

// FieldError pairs a field name with the message shown next to that field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every field that failed validation, in declaration order.
type ValidationError struct {
	Fields []FieldError
}

func (validationError *ValidationError) Error() string {
	if validationError == nil || len(validationError.Fields) == 0 {
		return ErrInvalidDraft.Error()
	}
	fieldNames := make([]string, 0, len(validationError.Fields))
	for _, fieldError := range validationError.Fields {
		fieldNames = append(fieldNames, fieldError.Field)
	}
	return ErrInvalidDraft.Error() + ": " + strings.Join(fieldNames, ",")
}

func (validationError *ValidationError) Unwrap() error {
	return ErrInvalidDraft
}

// MessageFor returns the message recorded for the field, or an empty string.
func (validationError *ValidationError) MessageFor(field string) string {
	if validationError == nil {
		return ""
	}
	for _, fieldError := range validationError.Fields {
		if fieldError.Field == field {
			return fieldError.Message
		}
	}
	return ""
}

// Map returns the field errors keyed by field name.
func (validationError *ValidationError) Map() map[string]string {
	messages := map[string]string{}
	if validationError == nil {
		return messages
	}
	for _, fieldError := range validationError.Fields {
		messages[fieldError.Field] = fieldError.Message
	}
	return messages
}

// AsValidationError extracts a ValidationError from err.
func AsValidationError(err error) (*ValidationError, bool) {
	var validationError *ValidationError
	if errors.As(err, &validationError) {
		return validationError, true
	}
	return nil, false
}

// fieldMessages maps field name and failed rule to the user-facing message.
// The empty rule key is the fallback for any rule of that field.
var fieldMessages = map[string]map[string]string{
	"title": {
		validationTagRequired: "Título é obrigatório",
		validationTagMin:      "Título deve ter pelo menos 3 caracteres",
		"":                    "Título inválido",
	},
	"description": {
		validationTagRequired: "Descrição é obrigatória",
		validationTagMin:      "Descrição deve ter pelo menos 10 caracteres",
		"":                    "Descrição inválida",
	},
	"icon": {
		"": "Selecione um ícone",
	},
	"image_url": {
		validationTagRequired: "URL da imagem é obrigatória",
		"":                    "URL da imagem deve ser válida",
	},
	"video_url": {
		"": "URL do vídeo deve ser válida",
	},
	"category": {
		"": "Selecione uma categoria",
	},
	"client_name": {
		validationTagRequired: "Nome do cliente é obrigatório",
		"":                    "Nome deve ter pelo menos 2 caracteres",
	},
	"client_photo": {
		"": "URL da foto deve ser válida",
	},
	"testimonial": {
		validationTagRequired: "Depoimento é obrigatório",
		"":                    "Depoimento deve ter pelo menos 10 caracteres",
	},
	"rating": {
		"": "Avaliação deve ser entre 1 e 5 estrelas",
	},
	"name": {
		"": "Nome deve ter pelo menos 2 caracteres",
	},
	"email": {
		"": "Email inválido",
	},
	"phone": {
		"": "Telefone inválido",
	},
	"message": {
		"": "Mensagem deve ter pelo menos 10 caracteres",
	},
	"status": {
		"": "Status inválido",
	},
}

var (
	draftValidatorOnce sync.Once
	draftValidator     *validator.Validate
)

func sharedValidator() *validator.Validate {
	draftValidatorOnce.Do(func() {
		draftValidator = validator.New(validator.WithRequiredStructEnabled())
		draftValidator.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get(jsonTagName), ",", 2)[0]
			if name == jsonTagIgnored {
				return ""
			}
			return name
		})
	})
	return draftValidator
}

func validateDraft(draft any) error {
	validateErr := sharedValidator().Struct(draft)
	if validateErr == nil {
		return nil
	}
	var fieldErrors validator.ValidationErrors
	if !errors.As(validateErr, &fieldErrors) {
		return validateErr
	}
	validationError := &ValidationError{}
	seenFields := map[string]struct{}{}
	for _, fieldError := range fieldErrors {
		fieldName := fieldError.Field()
		if _, seen := seenFields[fieldName]; seen {
			continue
		}
		seenFields[fieldName] = struct{}{}
		validationError.Fields = append(validationError.Fields, FieldError{
			Field:   fieldName,
			Message: messageFor(fieldName, fieldError.Tag()),
		})
	}
	return validationError
}

func messageFor(fieldName string, tag string) string {
	messages, known := fieldMessages[fieldName]
	if !known {
		return fallbackFieldMessage
	}
	if message, found := messages[tag]; found {
		return message
	}
	if message, found := messages[""]; found {
		return message
	}
	return fallbackFieldMessage
}
