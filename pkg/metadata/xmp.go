package metadata

import (
	"bytes"
	_ "embed"
	"encoding/xml"
	"fmt"
	"text/template"
	"time"
)

//go:embed xmp.tmpl
var xmpTmpl string

// XMPKeyword is the PNG text keyword XMP readers look for.
const XMPKeyword = "XML:com.adobe.xmp"

// XMP renders r as an XMP packet.
func XMP(r Record, tool string, created time.Time) ([]byte, error) {
	tmpl, err := template.New("xmp").Funcs(template.FuncMap{"X": xmlEscape}).Parse(xmpTmpl)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	data := struct {
		Record
		Label   string
		Tool    string
		Created string
	}{
		Record:  r,
		Label:   r.label(),
		Tool:    tool,
		Created: created.UTC().Format(time.RFC3339),
	}

	var b bytes.Buffer
	if err := tmpl.Execute(&b, data); err != nil {
		return nil, fmt.Errorf("execute: %w", err)
	}
	return b.Bytes(), nil
}

func xmlEscape(s string) (string, error) {
	var b bytes.Buffer
	if err := xml.EscapeText(&b, []byte(s)); err != nil {
		return "", err
	}
	return b.String(), nil
}
