package confirm

import (
	"context"
	"fmt"
	"strings"

	"hr-assistant-be/pkg/ai/response"
	"hr-assistant-be/pkg/recordclient"
	"hr-assistant-be/pkg/store"

	"golang.org/x/sync/errgroup"
)

// preview renders what action will do. stage is false when the action
// cannot apply and the returned text explains why.
func (m *Machine) preview(ctx context.Context, token string, a *store.PendingAction) (text string, stage bool, err error) {
	switch a.Kind {
	case store.ActionDelete:
		c, err := m.records.GetCandidate(ctx, token, a.CandidateID)
		if recordclient.IsNotFound(err) {
			return notFound(a.CandidateID), false, nil
		}
		if err != nil {
			return "", false, err
		}
		return "Are you sure you want to delete this candidate?\n\n" + response.Candidate(c), true, nil

	case store.ActionUpdate:
		if msg, ok := normalizeUpdate(a); !ok {
			return msg, false, nil
		}
		c, err := m.records.GetCandidate(ctx, token, a.CandidateID)
		if recordclient.IsNotFound(err) {
			return notFound(a.CandidateID), false, nil
		}
		if err != nil {
			return "", false, err
		}
		current := currentValue(c, a.Field)
		if current == "" {
			current = "(empty)"
		}
		return fmt.Sprintf("Update **%s** for candidate %d (%s) from `%s` to `%s`?\n",
			a.Field, c.ID, c.FullName(), current, a.Value), true, nil

	case store.ActionBulkDelete, store.ActionBulkUpdate:
		if len(a.IDs) == 0 {
			return "I couldn't find any candidate ids in that request.", false, nil
		}
		header := fmt.Sprintf("You are about to delete %d candidate(s):\n\n", len(a.IDs))
		if a.Kind == store.ActionBulkUpdate {
			if msg, ok := normalizeUpdate(a); !ok {
				return msg, false, nil
			}
			header = fmt.Sprintf("You are about to set **%s** to `%s` for %d candidate(s):\n\n", a.Field, a.Value, len(a.IDs))
		}
		return header + m.batchPreview(ctx, token, a.IDs), true, nil

	case store.ActionAddCandidate:
		_ = m.resolveLookups(ctx, token, a.Draft, false)
		return draftPreview(a.Draft), true, nil

	case store.ActionBulkCreate:
		if len(a.Rows) == 0 {
			return "That file has no rows I can import.", false, nil
		}
		return rowsPreview(a.Rows, m.cfg.PreviewSize), true, nil
	}
	return "", false, fmt.Errorf("unsupported action %q", a.Kind)
}

const maxListedIDs = 20

func notFound(id int) string {
	return fmt.Sprintf("No candidate found with ID %d.", id)
}

// normalizeUpdate canonicalizes the field name and checks numeric values.
func normalizeUpdate(a *store.PendingAction) (string, bool) {
	field, ok := store.NormalizeField(a.Field)
	if !ok {
		return fmt.Sprintf("I don't know the candidate field %q.", a.Field), false
	}
	a.Field = field
	a.Value = strings.TrimSpace(a.Value)
	if store.IsNumericField(field) {
		if _, err := store.ParseNumber(a.Value); err != nil {
			return fmt.Sprintf("%s must be a number, got %q.", field, a.Value), false
		}
	}
	return "", true
}

// batchPreview shows up to PreviewSize candidates fetched concurrently and
// lists the remaining ids. Fetch errors degrade to a plain id list.
func (m *Machine) batchPreview(ctx context.Context, token string, ids []int) string {
	n := min(len(ids), m.cfg.PreviewSize)
	found := make([]*recordclient.Candidate, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(n)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			c, err := m.records.GetCandidate(gctx, token, ids[i])
			if recordclient.IsNotFound(err) {
				return nil
			}
			if err != nil {
				return err
			}
			found[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		m.logger.Warn(moduleName, "Preview fetch failed", map[string]interface{}{"error": err.Error()})
		return "IDs: " + response.IDList(ids) + "\n"
	}

	var list []recordclient.Candidate
	var missing []int
	for i, c := range found {
		if c == nil {
			missing = append(missing, ids[i])
			continue
		}
		list = append(list, *c)
	}

	var b strings.Builder
	if len(list) > 0 {
		b.WriteString(response.CandidateList(list))
	}
	if len(missing) > 0 {
		fmt.Fprintf(&b, "\nNot found (will be reported as failed): %s\n", response.IDList(missing))
	}
	if rest := ids[n:]; len(rest) > 0 {
		if len(rest) > maxListedIDs {
			fmt.Fprintf(&b, "\n...and %d more: %s, ...\n", len(rest), response.IDList(rest[:maxListedIDs]))
		} else {
			fmt.Fprintf(&b, "\n...and %d more: %s\n", len(rest), response.IDList(rest))
		}
	}
	return b.String()
}

func draftPreview(d *store.CandidateDraft) string {
	var b strings.Builder
	b.WriteString("Please review the new candidate before I add it:\n\n")
	b.WriteString(response.Draft(d))
	if missing := d.Missing(); len(missing) > 0 {
		fmt.Fprintf(&b, "\nMissing required fields: %s\n", strings.Join(missing, ", "))
	}
	return b.String()
}

func rowsPreview(rows []store.Row, limit int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Ready to import %d candidate(s) from the uploaded file:\n\n", len(rows))
	for i, r := range rows {
		if i == limit {
			fmt.Fprintf(&b, "...and %d more row(s).\n", len(rows)-limit)
			break
		}
		name := strings.TrimSpace(r[store.FieldFirstName] + " " + r[store.FieldLastName])
		if name == "" {
			name = "(no name)"
		}
		fmt.Fprintf(&b, "%d. %s <%s>\n", i+1, name, r[store.FieldEmail])
	}
	return b.String()
}

// resolveLookups fills lookup ids on d. Without create, unknown names stay
// unresolved and errors are ignored so the draft can still be shown.
func (m *Machine) resolveLookups(ctx context.Context, token string, d *store.CandidateDraft, create bool) error {
	for _, kind := range store.LookupKinds {
		ref := d.Lookup(kind)
		if ref.Empty() || ref.Resolved() {
			continue
		}
		if create {
			l, err := m.records.GetOrCreateLookup(ctx, token, kind, ref.Name)
			if err != nil {
				return fmt.Errorf("%s %q: %w", kind, ref.Name, err)
			}
			*ref = store.LookupRef{Name: l.Name, ID: &l.ID}
			continue
		}
		l, ok, err := m.records.FindLookup(ctx, token, kind, ref.Name)
		if err != nil || !ok {
			continue
		}
		*ref = store.LookupRef{Name: l.Name, ID: &l.ID}
	}
	return nil
}

func (m *Machine) editDraft(ctx context.Context, token string, d *store.CandidateDraft, field, value string) error {
	if err := d.Set(field, value); err != nil {
		return err
	}
	canonical, _ := store.NormalizeField(field)
	if ref := d.Lookup(store.LookupKind(canonical)); ref != nil && !ref.Empty() {
		if l, ok, err := m.records.FindLookup(ctx, token, store.LookupKind(canonical), ref.Name); err == nil && ok {
			*ref = store.LookupRef{Name: l.Name, ID: &l.ID}
		}
	}
	return nil
}

func currentValue(c *recordclient.Candidate, field string) string {
	num := func(a *recordclient.Amount) string {
		if a == nil {
			return ""
		}
		return fmt.Sprintf("%g", float64(*a))
	}
	named := func(r *recordclient.NamedRef) string {
		if r == nil {
			return ""
		}
		return r.String()
	}
	switch field {
	case store.FieldFirstName:
		return c.FirstName
	case store.FieldLastName:
		return c.LastName
	case store.FieldEmail:
		return c.Email
	case store.FieldPhoneNumber:
		return c.PhoneNumber
	case store.FieldCandidateStage:
		return c.CandidateStage
	case store.FieldNotes:
		return c.Notes
	case store.FieldYearsOfExperience:
		return num(c.YearsOfExperience)
	case store.FieldExpectedSalary:
		return num(c.ExpectedSalary)
	case store.FieldCurrentSalary:
		return num(c.CurrentSalary)
	case store.FieldJobTitle:
		return named(c.JobTitle)
	case store.FieldCity:
		return named(c.City)
	case store.FieldSource:
		return named(c.Source)
	case store.FieldCommunicationSkills:
		return named(c.CommunicationSkills)
	}
	return ""
}
