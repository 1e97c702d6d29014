// Package diameter is a minimal stand-in for the Diameter dictionary,
// message builder, and asynchronous transport that the load generator
// treats as an external collaborator. It does not implement RFC 6733
// wire compliance — only enough framing to self-correlate requests and
// answers over a socket, which is all the scheduler above it needs.
package diameter

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// AVPType is the declared type of an AVP's value, as resolved from the
// dictionary.
type AVPType int

const (
	Unknown AVPType = iota
	Identity
	UTF8String
	OctetString
	Integer32
	Integer64
	Unsigned32
	Unsigned64
	Enumerated
	Float32
	Float64
	Grouped
	Time
	Address
	AddressIPv4
	AddressIPv6
	DiameterURI
)

func (t AVPType) String() string {
	switch t {
	case Identity:
		return "Identity"
	case UTF8String:
		return "UTF8String"
	case OctetString:
		return "OctetString"
	case Integer32:
		return "Integer32"
	case Integer64:
		return "Integer64"
	case Unsigned32:
		return "Unsigned32"
	case Unsigned64:
		return "Unsigned64"
	case Enumerated:
		return "Enumerated"
	case Float32:
		return "Float32"
	case Float64:
		return "Float64"
	case Grouped:
		return "Grouped"
	case Time:
		return "Time"
	case Address:
		return "Address"
	case AddressIPv4:
		return "AddressIPv4"
	case AddressIPv6:
		return "AddressIPv6"
	case DiameterURI:
		return "DiameterURI"
	default:
		return "Unknown"
	}
}

// AVPValue is a typed, resolved attribute value ready to append to a
// Message. The transport's framing (encodeFrame/decodeFrame) carries
// only Type and Scalar — it does not attempt a spec-accurate AVP wire
// encoding, and Grouped children are not framed.
type AVPValue struct {
	Type     AVPType
	Scalar   string  // textual form for scalar types
	Grouped  []AVP   // populated iff Type == Grouped
}

// AVP is a single attribute-value pair as it will be appended to a
// Message.
type AVP struct {
	Code      uint32
	VendorID  uint32
	Mandatory bool
	Value     AVPValue
}

// ValueParseError reports that a template's materialized string could
// not be converted to its declared AVP type.
type ValueParseError struct {
	AVPName string
	Reason  string
}

func (e *ValueParseError) Error() string {
	return fmt.Sprintf("value parse error: avp %q: %s", e.AVPName, e.Reason)
}

// StringToAVPValue converts a materialized template string into a
// typed AVP value according to t. avpName is only used to annotate
// errors.
func StringToAVPValue(avpName, s string, t AVPType) (AVPValue, error) {
	switch t {
	case Identity, UTF8String, DiameterURI:
		return AVPValue{Type: t, Scalar: s}, nil

	case OctetString:
		return AVPValue{Type: t, Scalar: s}, nil

	case Integer32, Unsigned32, Enumerated, Float32:
		if _, err := strconv.ParseInt(s, 10, 32); err != nil {
			if _, uerr := strconv.ParseUint(s, 10, 32); uerr != nil {
				return AVPValue{}, &ValueParseError{AVPName: avpName, Reason: fmt.Sprintf("%q is not a 32-bit integer", s)}
			}
		}
		return AVPValue{Type: t, Scalar: s}, nil

	case Time:
		if _, err := strconv.ParseInt(s, 10, 64); err != nil {
			if _, terr := time.Parse(time.RFC3339, s); terr != nil {
				return AVPValue{}, &ValueParseError{AVPName: avpName, Reason: fmt.Sprintf("%q is not a Unix timestamp or RFC3339 time", s)}
			}
		}
		return AVPValue{Type: t, Scalar: s}, nil

	case Integer64, Unsigned64, Float64:
		if _, err := strconv.ParseInt(s, 10, 64); err != nil {
			if _, uerr := strconv.ParseUint(s, 10, 64); uerr != nil {
				return AVPValue{}, &ValueParseError{AVPName: avpName, Reason: fmt.Sprintf("%q is not a 64-bit integer", s)}
			}
		}
		return AVPValue{Type: t, Scalar: s}, nil

	case Address:
		ip := net.ParseIP(s)
		if ip == nil {
			return AVPValue{}, &ValueParseError{AVPName: avpName, Reason: fmt.Sprintf("%q is not an IP literal", s)}
		}
		if ip.To4() != nil {
			return AVPValue{Type: AddressIPv4, Scalar: ip.String()}, nil
		}
		return AVPValue{Type: AddressIPv6, Scalar: ip.String()}, nil

	case AddressIPv4:
		ip := net.ParseIP(s)
		if ip == nil || ip.To4() == nil {
			return AVPValue{}, &ValueParseError{AVPName: avpName, Reason: fmt.Sprintf("%q is not an IPv4 literal", s)}
		}
		return AVPValue{Type: t, Scalar: ip.To4().String()}, nil

	case AddressIPv6:
		ip := net.ParseIP(s)
		if ip == nil || ip.To4() != nil {
			return AVPValue{}, &ValueParseError{AVPName: avpName, Reason: fmt.Sprintf("%q is not an IPv6 literal", s)}
		}
		return AVPValue{Type: t, Scalar: ip.String()}, nil

	case Grouped:
		return AVPValue{}, &ValueParseError{AVPName: avpName, Reason: "Grouped is invalid at scalar entry"}

	default:
		return AVPValue{}, &ValueParseError{AVPName: avpName, Reason: fmt.Sprintf("unknown target type for avp %q", avpName)}
	}
}
