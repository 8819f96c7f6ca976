package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildChangeSummaryEmpty(t *testing.T) {
	var changes ChangeSet
	assert.Equal(t, "CASA case was successfully updated.", changes.BuildChangeSummary())
	assert.True(t, changes.Empty())
}

func TestBuildChangeSummaryAttributes(t *testing.T) {
	var changes ChangeSet
	changes.AddAttribute("Case number")
	changes.AddAttribute("Court report status")

	want := "CASA case was successfully updated.<ul><li>Changed Case number</li><li>Changed Court report status</li></ul>"
	assert.Equal(t, want, changes.BuildChangeSummary())
}

func TestBuildChangeSummaryOrdersAndContactTypes(t *testing.T) {
	var changes ChangeSet
	changes.AddAttribute("Case number")
	changes.AddContactTypes([]string{"Youth", "Attorney"})
	changes.AddOrderChanges(2)

	want := `CASA case was successfully updated.<ul><li>Changed Case number</li><li>["Youth", "Attorney"] Contact types added</li><li>2 Court orders added or updated</li></ul>`
	assert.Equal(t, want, changes.BuildChangeSummary())
}

func TestBuildChangeSummaryZeroOrderChangesOmitted(t *testing.T) {
	var changes ChangeSet
	changes.AddOrderChanges(0)
	assert.Equal(t, "CASA case was successfully updated.", changes.BuildChangeSummary())
}
