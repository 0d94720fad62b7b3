// Package execcontext projects a contact and an execution's history into the
// flat map conditions and actions are evaluated against.
package execcontext

import (
	"github.com/dukex/journeys/pkg/models"
)

// Keys set by Build in addition to the contact attributes.
const (
	KeyContactID        = "contact_id"
	KeyJourneyID        = "journey_id"
	KeyExecutionID      = "execution_id"
	KeyEmailsSent       = "emails_sent"
	KeyTasksCreated     = "tasks_created"
	KeyDealsCreated     = "deals_created"
	KeyConditionResults = "condition_results"
	KeySMSSent          = "sms_sent"
	KeyWebhooksCalled   = "webhooks_called"
	KeyContactsUpdated  = "contact_updates"

	// ConditionPrefix prefixes the boolean outcome of each condition step,
	// e.g. "condition.check_score".
	ConditionPrefix = "condition."
)

var listKeys = map[models.DataEntryKind]string{
	models.DataEntryEmailSent:       KeyEmailsSent,
	models.DataEntryTaskCreated:     KeyTasksCreated,
	models.DataEntryDealCreated:     KeyDealsCreated,
	models.DataEntryConditionResult: KeyConditionResults,
	models.DataEntrySMSSent:         KeySMSSent,
	models.DataEntryWebhookCalled:   KeyWebhooksCalled,
	models.DataEntryContactUpdated:  KeyContactsUpdated,
}

// Build returns the evaluation context for one advance. Custom contact
// attributes never shadow the built-in keys.
func Build(contact *models.Contact, execution *models.Execution) map[string]any {
	values := make(map[string]any)

	if contact != nil {
		for key, value := range contact.Attributes {
			values[key] = value
		}

		values[KeyContactID] = contact.ID
		values[models.ContactFieldEmail] = contact.Email
		values[models.ContactFieldPhone] = contact.Phone
		values[models.ContactFieldFirstName] = contact.FirstName
		values[models.ContactFieldLastName] = contact.LastName
		values[models.ContactFieldCompanyName] = contact.CompanyName
		values[models.ContactFieldOwnerID] = contact.OwnerID
		values[models.ContactFieldLeadScore] = contact.LeadScore

		tags := make([]string, len(contact.Tags))
		copy(tags, contact.Tags)
		values[models.ContactFieldTags] = tags
	}

	if execution == nil {
		return values
	}

	values[KeyJourneyID] = execution.JourneyID
	values[KeyExecutionID] = execution.ID

	for key, list := range Lists(execution.Data) {
		values[key] = list
		values[key+"_count"] = len(list)
	}

	for _, entry := range execution.Data.ByKind(models.DataEntryConditionResult) {
		if met, ok := entry.Data["result"].(bool); ok {
			values[ConditionPrefix+entry.StepID] = met
		}
	}

	return values
}

// Lists groups the execution log by list key, e.g. "emails_sent". Every list
// key is present, empty when nothing of its kind was recorded.
func Lists(data models.ExecutionData) map[string][]map[string]any {
	lists := make(map[string][]map[string]any, len(listKeys))

	for kind, key := range listKeys {
		entries := data.ByKind(kind)

		list := make([]map[string]any, 0, len(entries))
		for _, entry := range entries {
			list = append(list, flatten(entry))
		}

		lists[key] = list
	}

	return lists
}

func flatten(entry models.DataEntry) map[string]any {
	item := make(map[string]any, len(entry.Data)+2)
	for key, value := range entry.Data {
		item[key] = value
	}

	item["step_id"] = entry.StepID
	item["at"] = entry.At

	return item
}
