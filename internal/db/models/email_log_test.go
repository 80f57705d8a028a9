package models

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"
)

func TestEmailLogColumnsAreUnbounded(t *testing.T) {
	s, err := schema.Parse(&EmailLog{}, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)

	for _, name := range []string{"ToEmail", "Subject", "Message"} {
		field := s.LookUpField(name)
		require.NotNil(t, field, name)
		assert.Zero(t, field.Size, name)
	}

	assert.Equal(t, schema.DataType("text"), s.LookUpField("ToEmail").DataType)
}
