package response

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"hr-assistant-be/pkg/recordclient"
	"hr-assistant-be/pkg/store"
)

func amount(a *recordclient.Amount) string {
	if a == nil {
		return ""
	}
	return number(float64(*a))
}

func number(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func ref(r *recordclient.NamedRef) string {
	if r == nil {
		return ""
	}
	return r.String()
}

// cell escapes pipes so values cannot break a markdown table row.
func cell(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), "|", "\\|")
}

func table(headers []string, rows [][]string) string {
	var b strings.Builder
	b.WriteString("| " + strings.Join(headers, " | ") + " |\n")
	sep := make([]string, len(headers))
	for i := range sep {
		sep[i] = "---"
	}
	b.WriteString("| " + strings.Join(sep, " | ") + " |\n")
	for _, row := range rows {
		escaped := make([]string, len(row))
		for i, v := range row {
			escaped[i] = cell(v)
		}
		b.WriteString("| " + strings.Join(escaped, " | ") + " |\n")
	}
	return b.String()
}

// Candidate renders one record as a markdown card.
func Candidate(c *recordclient.Candidate) string {
	if c == nil {
		return "No candidate found."
	}
	experience := amount(c.YearsOfExperience)
	if experience != "" {
		experience += " years"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**%s** (ID %d)\n", c.FullName(), c.ID)
	fmt.Fprintf(&b, "- Email: %s\n", c.Email)
	fmt.Fprintf(&b, "- Phone: %s\n", c.PhoneNumber)
	fmt.Fprintf(&b, "- Job Title: %s\n", ref(c.JobTitle))
	fmt.Fprintf(&b, "- Status: %s\n", c.CandidateStage)
	fmt.Fprintf(&b, "- Skills: %s\n", ref(c.CommunicationSkills))
	fmt.Fprintf(&b, "- Experience: %s\n", experience)
	fmt.Fprintf(&b, "- Expected Salary: %s\n", amount(c.ExpectedSalary))
	fmt.Fprintf(&b, "- Current Salary: %s\n", amount(c.CurrentSalary))
	fmt.Fprintf(&b, "- City: %s\n", ref(c.City))
	fmt.Fprintf(&b, "- Source: %s\n", ref(c.Source))
	fmt.Fprintf(&b, "- Notes: %s\n", c.Notes)
	if c.CreatedAt != "" {
		fmt.Fprintf(&b, "- Created At: %s\n", c.CreatedAt)
	}
	return b.String()
}

func CandidateList(cs []recordclient.Candidate) string {
	if len(cs) == 0 {
		return "No candidates found."
	}
	rows := make([][]string, 0, len(cs))
	for i := range cs {
		c := &cs[i]
		rows = append(rows, []string{
			strconv.Itoa(c.ID),
			c.FullName(),
			c.Email,
			c.CandidateStage,
			ref(c.CommunicationSkills),
			amount(c.YearsOfExperience),
			ref(c.City),
		})
	}
	return table([]string{"ID", "Name", "Email", "Status", "Skills", "Experience", "Location"}, rows)
}

// CandidatePage renders a page and a hint when more results exist.
func CandidatePage(p *recordclient.Page[recordclient.Candidate], page int) string {
	if p == nil {
		return CandidateList(nil)
	}
	out := CandidateList(p.Results)
	if p.Next != nil && *p.Next != "" {
		out += fmt.Sprintf("\nShowing page %d of %d candidates. Ask for page %d to see more.\n", page, p.Count, page+1)
	}
	return out
}

func lookupLine(label string, r store.LookupRef) string {
	switch {
	case r.Empty():
		return fmt.Sprintf("- %s: \n", label)
	case r.Resolved():
		return fmt.Sprintf("- %s: %s\n", label, r.Name)
	default:
		return fmt.Sprintf("- %s: %s (new)\n", label, r.Name)
	}
}

func optNumber(f *float64) string {
	if f == nil {
		return ""
	}
	return number(*f)
}

// Draft renders a candidate that has not been created yet.
func Draft(d *store.CandidateDraft) string {
	var b strings.Builder
	fmt.Fprintf(&b, "- First Name: %s\n", d.FirstName)
	fmt.Fprintf(&b, "- Last Name: %s\n", d.LastName)
	fmt.Fprintf(&b, "- Email: %s\n", d.Email)
	fmt.Fprintf(&b, "- Phone: %s\n", d.PhoneNumber)
	fmt.Fprintf(&b, "- Stage: %s\n", d.CandidateStage)
	fmt.Fprintf(&b, "- Experience: %s\n", optNumber(d.YearsOfExperience))
	fmt.Fprintf(&b, "- Expected Salary: %s\n", optNumber(d.ExpectedSalary))
	fmt.Fprintf(&b, "- Current Salary: %s\n", optNumber(d.CurrentSalary))
	b.WriteString(lookupLine("Job Title", d.JobTitle))
	b.WriteString(lookupLine("City", d.City))
	b.WriteString(lookupLine("Source", d.Source))
	b.WriteString(lookupLine("Communication Skills", d.CommunicationSkills))
	fmt.Fprintf(&b, "- Notes: %s\n", d.Notes)
	return b.String()
}

func JobPosts(posts []recordclient.JobPost) string {
	if len(posts) == 0 {
		return "No job posts found."
	}
	rows := make([][]string, 0, len(posts))
	for _, p := range posts {
		rows = append(rows, []string{strconv.Itoa(p.ID), p.Title, p.Department, p.Location, p.Status, p.SalaryRange})
	}
	return table([]string{"ID", "Title", "Department", "Location", "Status", "Salary Range"}, rows)
}

func JobPost(p *recordclient.JobPost) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s** (ID %d)\n", p.Title, p.ID)
	fmt.Fprintf(&b, "- Department: %s\n", p.Department)
	fmt.Fprintf(&b, "- Location: %s\n", p.Location)
	fmt.Fprintf(&b, "- Status: %s\n", p.Status)
	fmt.Fprintf(&b, "- Salary Range: %s\n", p.SalaryRange)
	if p.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", p.Description)
	}
	if p.Requirements != "" {
		fmt.Fprintf(&b, "\n**Requirements**\n%s\n", p.Requirements)
	}
	return b.String()
}

func Notes(candidateID int, notes []recordclient.Note) string {
	if len(notes) == 0 {
		return fmt.Sprintf("No notes found for candidate %d.", candidateID)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "**Notes for candidate %d**\n", candidateID)
	for _, n := range notes {
		if n.CreatedAt != "" {
			fmt.Fprintf(&b, "- [%s] %s\n", n.CreatedAt, n.Content)
		} else {
			fmt.Fprintf(&b, "- %s\n", n.Content)
		}
	}
	return b.String()
}

func Notifications(items []recordclient.Notification) string {
	if len(items) == 0 {
		return "You have no unread notifications."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "**%d unread notification(s)**\n", len(items))
	for _, n := range items {
		fmt.Fprintf(&b, "- %s\n", n.Message)
	}
	return b.String()
}

func RecentNotifications(items []recordclient.Notification) string {
	if len(items) == 0 {
		return "No notifications yet."
	}
	var b strings.Builder
	b.WriteString("**Recent notifications**\n")
	for _, n := range items {
		mark := ""
		if !n.IsRead {
			mark = " (unread)"
		}
		fmt.Fprintf(&b, "- %s%s\n", n.Message, mark)
	}
	return b.String()
}

// Activities renders recent-activity entries, which the record service
// sends with loosely defined keys.
func Activities(items []map[string]interface{}) string {
	if len(items) == 0 {
		return "No recent activity."
	}
	var b strings.Builder
	b.WriteString("**Recent activity**\n")
	for _, it := range items {
		desc := firstString(it, "description", "message", "action", "activity")
		if desc == "" {
			desc = scalar(it)
		}
		if at := firstString(it, "timestamp", "created_at", "date"); at != "" {
			fmt.Fprintf(&b, "- %s (%s)\n", desc, at)
		} else {
			fmt.Fprintf(&b, "- %s\n", desc)
		}
	}
	return b.String()
}

func firstString(m map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// Metrics renders a flat bullet list; nested values are shown as compact JSON.
func Metrics(title string, m map[string]interface{}) string {
	if len(m) == 0 {
		return "No analytics data found."
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	fmt.Fprintf(&b, "**%s**\n", title)
	for _, k := range keys {
		fmt.Fprintf(&b, "- %s: %s\n", humanize(k), scalar(m[k]))
	}
	return b.String()
}

func humanize(key string) string {
	words := strings.Fields(strings.ReplaceAll(key, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func scalar(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return number(t)
	case bool:
		return strconv.FormatBool(t)
	default:
		raw, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(raw)
	}
}

// IDList renders ids as "1, 2, 3".
func IDList(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ", ")
}
