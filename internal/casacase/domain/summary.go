package domain

import (
	"fmt"
	"strings"
)

// ChangeSet collects what an update actually touched, in submission order.
type ChangeSet struct {
	changedAttrs      []string
	addedContactTypes []string
	orderCount        int
}

func (c *ChangeSet) AddAttribute(label string) {
	c.changedAttrs = append(c.changedAttrs, label)
}

func (c *ChangeSet) AddContactTypes(names []string) {
	c.addedContactTypes = append(c.addedContactTypes, names...)
}

func (c *ChangeSet) AddOrderChanges(n int) {
	c.orderCount += n
}

func (c *ChangeSet) Empty() bool {
	return len(c.changedAttrs) == 0 && len(c.addedContactTypes) == 0 && c.orderCount == 0
}

// BuildChangeSummary renders the update notice: simple attribute changes
// first, then contact type additions, then the court order count.
func (c *ChangeSet) BuildChangeSummary() string {
	var b strings.Builder
	b.WriteString("CASA case was successfully updated.")
	if c.Empty() {
		return b.String()
	}

	b.WriteString("<ul>")
	for _, attr := range c.changedAttrs {
		fmt.Fprintf(&b, "<li>Changed %s</li>", attr)
	}
	if len(c.addedContactTypes) > 0 {
		quoted := make([]string, 0, len(c.addedContactTypes))
		for _, name := range c.addedContactTypes {
			quoted = append(quoted, fmt.Sprintf("%q", name))
		}
		fmt.Fprintf(&b, "<li>[%s] Contact types added</li>", strings.Join(quoted, ", "))
	}
	if c.orderCount > 0 {
		fmt.Fprintf(&b, "<li>%d Court orders added or updated</li>", c.orderCount)
	}
	b.WriteString("</ul>")
	return b.String()
}
