package fileparse

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"

	"hr-assistant-be/pkg/store"
)

var (
	emailPattern      = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	phonePattern      = regexp.MustCompile(`\+?\d[\d\s().\-]{7,}\d`)
	experiencePattern = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\+?\s*(?:years?|yrs?)`)
	labelPattern      = regexp.MustCompile(`^\s*([A-Za-z][A-Za-z _\-]{1,30}?)\s*:\s*(.+)$`)
)

func parsePDF(data []byte) (res *Result, err error) {
	// the pdf reader panics on some malformed xref tables
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return nil, err
	}
	return parseText(buf.String())
}

func parseDOCX(data []byte) (*Result, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		text, err := documentText(rc)
		if err != nil {
			return nil, err
		}
		return parseText(text)
	}
	return nil, errors.New("word/document.xml not found")
}

// documentText flattens WordprocessingML runs into lines, one per paragraph.
func documentText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var (
		sb     strings.Builder
		inText bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				sb.WriteByte('\t')
			case "br":
				sb.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return sb.String(), nil
}

func parseText(text string) (*Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyFile
	}
	fields := guessFields(text)
	return &Result{
		Fields:       fields,
		Text:         text,
		QualityScore: textQuality(fields),
	}, nil
}

// guessFields pulls candidate details out of free text such as a resume.
// Labelled lines win over pattern matches.
func guessFields(text string) map[string]string {
	fields := map[string]string{}
	lines := strings.Split(text, "\n")

	for _, line := range lines {
		m := labelPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		label, value := strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
		if store.IsNullish(value) {
			continue
		}
		if fullNameAliases[strings.ToLower(label)] {
			splitName(fields, value)
			continue
		}
		if canonical, ok := store.NormalizeField(label); ok {
			if _, seen := fields[canonical]; !seen {
				fields[canonical] = value
			}
		}
	}

	if _, ok := fields[store.FieldEmail]; !ok {
		if e := emailPattern.FindString(text); e != "" {
			fields[store.FieldEmail] = e
		}
	}
	if _, ok := fields[store.FieldPhoneNumber]; !ok {
		if p := phonePattern.FindString(text); p != "" {
			fields[store.FieldPhoneNumber] = strings.TrimSpace(p)
		}
	}
	exp, labelled := fields[store.FieldYearsOfExperience]
	if !labelled {
		exp = text
	}
	if m := experiencePattern.FindStringSubmatch(exp); m != nil {
		fields[store.FieldYearsOfExperience] = m[1]
	}
	if _, ok := fields[store.FieldFirstName]; !ok {
		for _, line := range lines {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if looksLikeName(line) {
				splitName(fields, line)
			}
			break
		}
	}
	return fields
}

// looksLikeName accepts two to four capitalised words of letters.
func looksLikeName(line string) bool {
	words := strings.Fields(line)
	if len(words) < 2 || len(words) > 4 {
		return false
	}
	for _, w := range words {
		r := []rune(w)
		if !unicode.IsUpper(r[0]) {
			return false
		}
		for _, c := range r {
			if !unicode.IsLetter(c) && c != '\'' && c != '-' && c != '.' {
				return false
			}
		}
	}
	return true
}
