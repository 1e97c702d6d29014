package diameter

import "fmt"

// Flag bits carried in the Diameter command header.
const (
	FlagRequest uint8 = 0x80
)

// Message is a synthetic Diameter request or answer.
type Message struct {
	CommandCode   uint32
	ApplicationID uint32
	Flags         uint8
	HopByHopID    uint32
	EndToEndID    uint32
	AVPs          []AVP
}

func (m *Message) String() string {
	return fmt.Sprintf("Message{cmd=%d app=%d hbh=%d e2e=%d avps=%d}",
		m.CommandCode, m.ApplicationID, m.HopByHopID, m.EndToEndID, len(m.AVPs))
}

// Builder accumulates AVPs for one message in declared order before
// Scenario.NextMessage hands the result to the transport.
type Builder struct {
	msg *Message
}

// NewBuilder starts a request with the REQUEST flag set, using seqNum
// as both the hop-by-hop and end-to-end identifier.
func NewBuilder(commandCode, applicationID uint32, seqNum uint32) *Builder {
	return &Builder{
		msg: &Message{
			CommandCode:   commandCode,
			ApplicationID: applicationID,
			Flags:         FlagRequest,
			HopByHopID:    seqNum,
			EndToEndID:    seqNum,
		},
	}
}

// Append adds a typed AVP value in call order.
func (b *Builder) Append(code, vendorID uint32, mandatory bool, value AVPValue) *Builder {
	b.msg.AVPs = append(b.msg.AVPs, AVP{
		Code:      code,
		VendorID:  vendorID,
		Mandatory: mandatory,
		Value:     value,
	})
	return b
}

// Build returns the assembled message.
func (b *Builder) Build() *Message {
	return b.msg
}
