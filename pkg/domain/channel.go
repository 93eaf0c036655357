package domain

import dErrors "holly/pkg/domain-errors"

// Channel is a domain value that identifies an outreach channel.
// Invariant: the value must be one of the supported channels.
//
// Usage: construct via ParseChannel at trust boundaries to enforce the
// allowlist; direct casting bypasses validation.
type Channel string

// Supported outreach channels.
const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
	ChannelCall  Channel = "call"
)

// validChannels is the single source of truth for valid channels.
var validChannels = map[Channel]bool{
	ChannelEmail: true,
	ChannelSMS:   true,
	ChannelCall:  true,
}

// ParseChannel constructs a Channel from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported; no
// other errors are expected.
func ParseChannel(s string) (Channel, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "channel cannot be empty")
	}
	c := Channel(s)
	if !c.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid channel")
	}
	return c, nil
}

// IsValid checks if the channel is one of the supported enum values.
func (c Channel) IsValid() bool {
	return validChannels[c]
}

// String returns the string representation of the channel.
func (c Channel) String() string {
	return string(c)
}
