package jmap

import "strings"

// Filter is an Email/query filter: a FilterCondition or a FilterOperator.
type Filter interface {
	isFilter()
}

// FilterCondition matches emails on every non-empty field.
type FilterCondition struct {
	InMailbox  string `json:"inMailbox,omitempty"`
	From       string `json:"from,omitempty"`
	To         string `json:"to,omitempty"`
	Subject    string `json:"subject,omitempty"`
	HasKeyword string `json:"hasKeyword,omitempty"`
	Text       string `json:"text,omitempty"`
	After      string `json:"after,omitempty"`
	Before     string `json:"before,omitempty"`
}

func (FilterCondition) isFilter() {}

// IsEmpty reports whether the condition would match everything.
func (c FilterCondition) IsEmpty() bool {
	return c == FilterCondition{}
}

// Operators for FilterOperator.
const (
	OperatorAND = "AND"
	OperatorOR  = "OR"
	OperatorNOT = "NOT"
)

// FilterOperator combines nested filters.
type FilterOperator struct {
	Operator   string   `json:"operator"`
	Conditions []Filter `json:"conditions"`
}

func (FilterOperator) isFilter() {}

// MailboxFilter restricts a query to the given mailboxes. Blank ids are
// ignored; no ids means no restriction and a nil filter.
func MailboxFilter(ids []string) Filter {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			valid = append(valid, id)
		}
	}

	switch len(valid) {
	case 0:
		return nil
	case 1:
		return FilterCondition{InMailbox: valid[0]}
	}

	conditions := make([]Filter, 0, len(valid))
	for _, id := range valid {
		conditions = append(conditions, FilterCondition{InMailbox: id})
	}

	return FilterOperator{Operator: OperatorOR, Conditions: conditions}
}
