package core

import (
	"context"
	"fmt"

	"procurecore/pkg/domain"
)

// statusPair is one permitted edge of a status machine.
type statusPair struct {
	from string
	to   string
}

// statusMachine holds the authoritative transition table for one entity.
// Every status change, whatever its call path, must match a pair here.
type statusMachine struct {
	label  string
	known  map[string]struct{}
	edges  map[statusPair]struct{}
	closed map[string]struct{} // statuses with no outgoing edges
}

func newStatusMachine(label string, known []string, pairs []statusPair) statusMachine {
	m := statusMachine{
		label:  label,
		known:  toSet(known...),
		edges:  make(map[statusPair]struct{}, len(pairs)),
		closed: make(map[string]struct{}),
	}
	outgoing := make(map[string]int, len(known))
	for _, p := range pairs {
		m.edges[p] = struct{}{}
		outgoing[p.from]++
	}
	for _, s := range known {
		if outgoing[s] == 0 {
			m.closed[s] = struct{}{}
		}
	}
	return m
}

func (m statusMachine) knows(status string) bool {
	_, ok := m.known[status]
	return ok
}

func (m statusMachine) allows(from, to string) bool {
	_, ok := m.edges[statusPair{from: from, to: to}]
	return ok
}

func (m statusMachine) terminal(status string) bool {
	_, ok := m.closed[status]
	return ok
}

func toSet(values ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

var materialMachine = newStatusMachine("material",
	[]string{
		string(domain.MaterialStatusActive),
		string(domain.MaterialStatusInactive),
		string(domain.MaterialStatusDeprecated),
	},
	[]statusPair{
		{string(domain.MaterialStatusActive), string(domain.MaterialStatusInactive)},
		{string(domain.MaterialStatusInactive), string(domain.MaterialStatusActive)},
		{string(domain.MaterialStatusActive), string(domain.MaterialStatusDeprecated)},
		{string(domain.MaterialStatusInactive), string(domain.MaterialStatusDeprecated)},
	},
)

var requisitionMachine = newStatusMachine("requisition",
	[]string{
		string(domain.DocumentStatusDraft),
		string(domain.DocumentStatusSubmitted),
		string(domain.DocumentStatusApproved),
		string(domain.DocumentStatusRejected),
		string(domain.DocumentStatusOrdered),
	},
	[]statusPair{
		{string(domain.DocumentStatusDraft), string(domain.DocumentStatusSubmitted)},
		{string(domain.DocumentStatusSubmitted), string(domain.DocumentStatusApproved)},
		{string(domain.DocumentStatusSubmitted), string(domain.DocumentStatusRejected)},
		{string(domain.DocumentStatusApproved), string(domain.DocumentStatusOrdered)},
	},
)

var orderMachine = newStatusMachine("order",
	[]string{
		string(domain.DocumentStatusDraft),
		string(domain.DocumentStatusSubmitted),
		string(domain.DocumentStatusApproved),
		string(domain.DocumentStatusPartiallyReceived),
		string(domain.DocumentStatusReceived),
		string(domain.DocumentStatusCompleted),
		string(domain.DocumentStatusCanceled),
	},
	[]statusPair{
		{string(domain.DocumentStatusDraft), string(domain.DocumentStatusSubmitted)},
		{string(domain.DocumentStatusSubmitted), string(domain.DocumentStatusApproved)},
		{string(domain.DocumentStatusApproved), string(domain.DocumentStatusPartiallyReceived)},
		{string(domain.DocumentStatusApproved), string(domain.DocumentStatusReceived)},
		{string(domain.DocumentStatusPartiallyReceived), string(domain.DocumentStatusReceived)},
		{string(domain.DocumentStatusPartiallyReceived), string(domain.DocumentStatusCompleted)},
		{string(domain.DocumentStatusReceived), string(domain.DocumentStatusCompleted)},
		{string(domain.DocumentStatusDraft), string(domain.DocumentStatusCanceled)},
		{string(domain.DocumentStatusSubmitted), string(domain.DocumentStatusCanceled)},
		{string(domain.DocumentStatusApproved), string(domain.DocumentStatusCanceled)},
		{string(domain.DocumentStatusPartiallyReceived), string(domain.DocumentStatusCanceled)},
		{string(domain.DocumentStatusReceived), string(domain.DocumentStatusCanceled)},
	},
)

// StatusTransitionRule blocks illegal status transitions on materials,
// requisitions, and orders.
func StatusTransitionRule() domain.Rule {
	return statusTransitionRule{}
}

type statusTransitionRule struct{}

func (statusTransitionRule) Name() string { return "status_transition" }

func (statusTransitionRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	var result domain.Result
	for _, change := range changes {
		machine, id, before, after, ok := extractStatusChange(change)
		if !ok {
			continue
		}
		if change.Action == domain.ActionCreate {
			if !machine.knows(after) {
				result.Violations = append(result.Violations, domain.Violation{
					Rule:     "status_transition",
					Severity: domain.SeverityBlock,
					Message:  fmt.Sprintf("%s created with unknown status %q", machine.label, after),
					Entity:   change.Entity,
					EntityID: id,
				})
			}
			continue
		}
		if before == after {
			continue
		}
		if !machine.knows(after) {
			result.Violations = append(result.Violations, domain.Violation{
				Rule:     "status_transition",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("%s moved to unknown status %q", machine.label, after),
				Entity:   change.Entity,
				EntityID: id,
			})
			continue
		}
		if !machine.allows(before, after) {
			result.Violations = append(result.Violations, domain.Violation{
				Rule:     "status_transition",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("%s transition %s -> %s is not permitted", machine.label, before, after),
				Entity:   change.Entity,
				EntityID: id,
			})
		}
	}
	return result, nil
}

func extractStatusChange(change domain.Change) (machine statusMachine, id, before, after string, ok bool) {
	switch change.Entity {
	case domain.EntityMaterial:
		afterMaterial, valid := change.After.(domain.Material)
		if !valid {
			return statusMachine{}, "", "", "", false
		}
		if beforeMaterial, has := change.Before.(domain.Material); has {
			before = string(beforeMaterial.Status)
		}
		return materialMachine, afterMaterial.ID, before, string(afterMaterial.Status), true
	case domain.EntityRequisition:
		afterReq, valid := change.After.(domain.Requisition)
		if !valid {
			return statusMachine{}, "", "", "", false
		}
		if beforeReq, has := change.Before.(domain.Requisition); has {
			before = string(beforeReq.Status)
		}
		return requisitionMachine, afterReq.ID, before, string(afterReq.Status), true
	case domain.EntityOrder:
		afterOrder, valid := change.After.(domain.Order)
		if !valid {
			return statusMachine{}, "", "", "", false
		}
		if beforeOrder, has := change.Before.(domain.Order); has {
			before = string(beforeOrder.Status)
		}
		return orderMachine, afterOrder.ID, before, string(afterOrder.Status), true
	default:
		return statusMachine{}, "", "", "", false
	}
}
