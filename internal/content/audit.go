package content

import (
	"fmt"

	"github.com/OpenSkyDrones/opensky/internal/model"
)

// Issue describes one seed record that would be rejected by the admin forms.
type Issue struct {
	Collection string
	RecordID   string
	Field      string
	Message    string
}

func (issue Issue) String() string {
	return fmt.Sprintf("%s[%s].%s: %s", issue.Collection, issue.RecordID, issue.Field, issue.Message)
}

// Audit validates every seed record with the same rules the admin forms apply.
func Audit(document Content) []Issue {
	var issues []Issue
	collect := func(collection string, recordID string, err error) {
		validationError, ok := model.AsValidationError(err)
		if !ok {
			if err != nil {
				issues = append(issues, Issue{Collection: collection, RecordID: recordID, Message: err.Error()})
			}
			return
		}
		for _, fieldError := range validationError.Fields {
			issues = append(issues, Issue{Collection: collection, RecordID: recordID, Field: fieldError.Field, Message: fieldError.Message})
		}
	}

	for _, service := range document.Seeds.Services {
		_, err := model.NewServiceDraft(model.DraftFromService(service))
		collect("services", service.ID, err)
	}
	for _, item := range document.Seeds.Portfolio {
		_, err := model.NewPortfolioDraft(model.DraftFromPortfolioItem(item))
		collect("portfolio", item.ID, err)
	}
	for _, testimonial := range document.Seeds.Testimonials {
		_, err := model.NewTestimonialDraft(model.DraftFromTestimonial(testimonial))
		collect("testimonials", testimonial.ID, err)
	}
	for _, contact := range document.Seeds.Contacts {
		_, err := model.NewContactDraft(model.DraftFromContact(contact))
		collect("contacts", contact.ID, err)
	}
	for index, question := range document.FAQ {
		if question.Question == "" || question.Answer == "" {
			issues = append(issues, Issue{Collection: "faq", RecordID: fmt.Sprint(index), Field: "question", Message: "pergunta e resposta são obrigatórias"})
		}
	}
	return issues
}
