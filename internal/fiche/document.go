package fiche

import (
	"strconv"
	"time"

	"github.com/horizon-rh/horizon-rh/internal/leave"
)

// Field is one label/value pair in a fiche section.
type Field struct {
	Label string
	Value string
}

// Section groups related fields under a heading.
type Section struct {
	Title  string
	Fields []Field
}

// Document is the structured fiche content. It carries no layout or styling;
// the renderer owns presentation.
type Document struct {
	Title       string
	Reference   string
	GeneratedAt time.Time
	Sections    []Section
}

const dateLayout = "02/01/2006"

var statusLabels = map[leave.Status]string{
	leave.StatusPending:  "En attente",
	leave.StatusApproved: "Approuvée",
	leave.StatusRejected: "Refusée",
	leave.StatusRevoked:  "Annulée",
	leave.StatusDeleted:  "Supprimée",
}

// StatusLabel returns the printable French label for a status.
func StatusLabel(s leave.Status) string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

// BuildDocument derives the fiche content from a request snapshot. The
// function is pure: the same snapshot and timestamp always yield the same
// document, section for section, field for field.
func BuildDocument(rec leave.RequestRecord, generatedAt time.Time) Document {
	doc := Document{
		Title:       "Fiche de demande de congé",
		Reference:   rec.ID.String(),
		GeneratedAt: generatedAt,
	}

	doc.Sections = append(doc.Sections, Section{
		Title: "Demande",
		Fields: []Field{
			{Label: "Référence", Value: rec.ID.String()},
			{Label: "Statut", Value: StatusLabel(rec.Status)},
			{Label: "Créée le", Value: rec.CreatedAt.Format(dateLayout)},
		},
	})

	doc.Sections = append(doc.Sections, Section{
		Title: "Demandeur",
		Fields: []Field{
			{Label: "Nom", Value: rec.Requester.FullName},
			{Label: "Email", Value: rec.Requester.Email},
			{Label: "Service", Value: rec.Requester.ServiceName},
		},
	})

	doc.Sections = append(doc.Sections, Section{
		Title: "Congé",
		Fields: []Field{
			{Label: "Type", Value: rec.LeaveType},
			{Label: "Du", Value: rec.Period.Start.Format(dateLayout)},
			{Label: "Au", Value: rec.Period.End.Format(dateLayout)},
			{Label: "Nombre de jours", Value: strconv.Itoa(rec.Period.DayCount)},
		},
	})

	if rec.DecidedAt != nil {
		doc.Sections = append(doc.Sections, Section{
			Title: "Décision",
			Fields: []Field{
				{Label: "Décidée par", Value: rec.Approver.FullName},
				{Label: "Date de décision", Value: rec.DecidedAt.Format(dateLayout)},
			},
		})
	}

	if rec.Motif != "" {
		doc.Sections = append(doc.Sections, Section{
			Title: "Motif",
			Fields: []Field{
				{Label: "Motif", Value: rec.Motif},
			},
		})
	}

	return doc
}
