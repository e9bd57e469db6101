package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPorts_Validate(t *testing.T) {
	var nilPorts *Ports
	assert.ErrorIs(t, nilPorts.Validate(), ErrInvalidPorts)
	assert.NoError(t, (&Ports{}).Validate())
	assert.NoError(t, (&Ports{Export: &mockExportService{}}).Validate())
}
