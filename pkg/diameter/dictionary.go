package diameter

import (
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// DictionaryError reports a failure to load or parse an AVP dictionary
// source.
type DictionaryError struct {
	Source string
	Reason string
}

func (e *DictionaryError) Error() string {
	return fmt.Sprintf("dictionary error: %s: %s", e.Source, e.Reason)
}

// AVPDef is a dictionary-declared AVP: its numeric code, optional
// vendor id, type, and whether it carries the Mandatory (M) bit.
type AVPDef struct {
	Code      uint32
	VendorID  uint32
	Type      AVPType
	Mandatory bool
}

// Dictionary resolves command/application/AVP names to the numeric
// identifiers and types a Scenario needs to build messages.
type Dictionary struct {
	commands map[string]uint32
	apps     map[string]uint32
	avps     map[string]AVPDef
}

// CommandCode resolves a command name, e.g. "Credit-Control".
func (d *Dictionary) CommandCode(name string) (uint32, bool) {
	code, ok := d.commands[name]
	return code, ok
}

// ApplicationID resolves an application name, e.g. "Credit-Control".
func (d *Dictionary) ApplicationID(name string) (uint32, bool) {
	id, ok := d.apps[name]
	return id, ok
}

// AVP resolves an AVP name to its dictionary definition.
func (d *Dictionary) AVP(name string) (AVPDef, bool) {
	def, ok := d.avps[name]
	return def, ok
}

// DefaultDictionary returns the built-in Base/Credit-Control dictionary
// that every loaded Dictionary is layered on top of.
func DefaultDictionary() *Dictionary {
	return &Dictionary{
		commands: map[string]uint32{
			"Capabilities-Exchange": 257,
			"Device-Watchdog":       280,
			"Disconnect-Peer":       282,
			"Credit-Control":        272,
			"Accounting":            271,
		},
		apps: map[string]uint32{
			"Base":           0,
			"Credit-Control": 4,
			"Gx":              16777238,
			"Rx":              16777236,
			"Gy":              4,
		},
		avps: map[string]AVPDef{
			"Session-Id":             {Code: 263, Type: UTF8String, Mandatory: true},
			"Origin-Host":            {Code: 264, Type: Identity, Mandatory: true},
			"Origin-Realm":           {Code: 296, Type: Identity, Mandatory: true},
			"Destination-Host":       {Code: 293, Type: Identity, Mandatory: false},
			"Destination-Realm":      {Code: 283, Type: Identity, Mandatory: true},
			"Result-Code":            {Code: 268, Type: Unsigned32, Mandatory: true},
			"Auth-Application-Id":    {Code: 258, Type: Unsigned32, Mandatory: true},
			"CC-Request-Type":        {Code: 416, Type: Enumerated, Mandatory: true},
			"CC-Request-Number":      {Code: 415, Type: Unsigned32, Mandatory: true},
			"Subscription-Id-Data":   {Code: 444, Type: UTF8String, Mandatory: false},
			"User-Name":              {Code: 1, Type: UTF8String, Mandatory: false},
			"Event-Timestamp":        {Code: 55, Type: Time, Mandatory: false},
			"Host-IP-Address":        {Code: 257, Type: Address, Mandatory: true},
			"Origin-State-Id":        {Code: 278, Type: Unsigned32, Mandatory: false},
			"Vendor-Id":              {Code: 266, Type: Unsigned32, Mandatory: true},
			"Product-Name":           {Code: 269, Type: UTF8String, Mandatory: true},
		},
	}
}

// LoadDictionaries reads each path — a local file path or an
// http(s):// URL — as an AVP dictionary XML document, and merges the
// result on top of DefaultDictionary. Entries in later files override
// earlier ones with the same name.
func LoadDictionaries(paths []string) (*Dictionary, error) {
	dict := DefaultDictionary()

	for _, p := range paths {
		data, err := readDictionarySource(p)
		if err != nil {
			return nil, &DictionaryError{Source: p, Reason: err.Error()}
		}
		var doc xmlDictionary
		if err := xml.Unmarshal(data, &doc); err != nil {
			return nil, &DictionaryError{Source: p, Reason: fmt.Sprintf("parse: %v", err)}
		}
		mergeDictionary(dict, &doc)
	}

	return dict, nil
}

func readDictionarySource(path string) ([]byte, error) {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		client := &http.Client{Timeout: 30 * time.Second}
		resp, err := client.Get(path)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		return io.ReadAll(resp.Body)
	}
	return os.ReadFile(path)
}

// xmlDictionary is the minimal AVP dictionary XML schema this
// generator understands: <dictionary> containing <command>,
// <application>, and <avp> elements.
type xmlDictionary struct {
	XMLName xml.Name `xml:"dictionary"`
	Commands []xmlCommand `xml:"command"`
	Apps     []xmlApp     `xml:"application"`
	AVPs     []xmlAVP     `xml:"avp"`
}

type xmlCommand struct {
	Name string `xml:"name,attr"`
	Code uint32 `xml:"code,attr"`
}

type xmlApp struct {
	Name string `xml:"name,attr"`
	ID   uint32 `xml:"id,attr"`
}

type xmlAVP struct {
	Name      string `xml:"name,attr"`
	Code      uint32 `xml:"code,attr"`
	VendorID  string `xml:"vendor-id,attr"`
	Type      string `xml:"type,attr"`
	Mandatory string `xml:"mandatory,attr"`
}

func mergeDictionary(dict *Dictionary, doc *xmlDictionary) {
	for _, c := range doc.Commands {
		dict.commands[c.Name] = c.Code
	}
	for _, a := range doc.Apps {
		dict.apps[a.Name] = a.ID
	}
	for _, a := range doc.AVPs {
		var vendorID uint32
		if a.VendorID != "" {
			if v, err := strconv.ParseUint(a.VendorID, 10, 32); err == nil {
				vendorID = uint32(v)
			}
		}
		dict.avps[a.Name] = AVPDef{
			Code:      a.Code,
			VendorID:  vendorID,
			Type:      parseAVPType(a.Type),
			Mandatory: a.Mandatory == "true" || a.Mandatory == "1",
		}
	}
}

func parseAVPType(s string) AVPType {
	switch s {
	case "Identity":
		return Identity
	case "UTF8String":
		return UTF8String
	case "OctetString":
		return OctetString
	case "Integer32":
		return Integer32
	case "Integer64":
		return Integer64
	case "Unsigned32":
		return Unsigned32
	case "Unsigned64":
		return Unsigned64
	case "Enumerated":
		return Enumerated
	case "Float32":
		return Float32
	case "Float64":
		return Float64
	case "Grouped":
		return Grouped
	case "Time":
		return Time
	case "Address":
		return Address
	case "AddressIPv4":
		return AddressIPv4
	case "AddressIPv6":
		return AddressIPv6
	case "DiameterURI":
		return DiameterURI
	default:
		return Unknown
	}
}
