package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeE164(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "swiss national format", input: "044 668 18 00", want: "+41446681800"},
		{name: "already e164", input: "+41446681800", want: "+41446681800"},
		{name: "international dialing prefix", input: "0041 79 123 45 67", want: "+41791234567"},
		{name: "garbage kept", input: "  call me  ", want: "call me"},
		{name: "empty", input: "   ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeE164(tt.input))
		})
	}
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("044 668 18 00"))
	assert.False(t, Valid("12"))
}
