package tscat

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"

	"golang.org/x/net/html/charset"
)

const (
	DefaultVersion = "2.1"
	tsPreamble     = `<?xml version="1.0" encoding="utf-8"?>` + "\n" + `<!DOCTYPE TS>` + "\n"
)

type xmlTS struct {
	XMLName        xml.Name     `xml:"TS"`
	Version        string       `xml:"version,attr"`
	Language       string       `xml:"language,attr"`
	SourceLanguage string       `xml:"sourcelanguage,attr"`
	Contexts       []xmlContext `xml:"context"`
}

type xmlContext struct {
	Name     string       `xml:"name"`
	Comment  string       `xml:"comment"`
	Messages []xmlMessage `xml:"message"`
}

type xmlMessage struct {
	ID                string         `xml:"id,attr"`
	Numerus           string         `xml:"numerus,attr"`
	Locations         []xmlLocation  `xml:"location"`
	Source            string         `xml:"source"`
	OldSource         string         `xml:"oldsource"`
	Comment           string         `xml:"comment"`
	OldComment        string         `xml:"oldcomment"`
	ExtraComment      string         `xml:"extracomment"`
	TranslatorComment string         `xml:"translatorcomment"`
	Translation       xmlTranslation `xml:"translation"`
}

type xmlLocation struct {
	Filename string `xml:"filename,attr"`
	Line     string `xml:"line,attr"`
}

type xmlTranslation struct {
	Type         string   `xml:"type,attr"`
	Text         string   `xml:",chardata"`
	NumerusForms []string `xml:"numerusform"`
}

// Decode reads a .ts document. Context and message order is kept and all text is
// kept verbatim.
func Decode(r io.Reader) (*Catalog, error) {
	return decode(r, "")
}

// ReadFile decodes the catalog stored at path.
func ReadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return decode(f, path)
}

func decode(r io.Reader, filename string) (*Catalog, error) {
	dec := xml.NewDecoder(r)
	// Older catalogs were written in legacy encodings.
	dec.CharsetReader = charset.NewReaderLabel

	var doc xmlTS
	if err := dec.Decode(&doc); err != nil {
		return nil, &ParseError{Filename: filename, err: err}
	}

	catalog := &Catalog{
		Version:        doc.Version,
		Language:       doc.Language,
		SourceLanguage: doc.SourceLanguage,
		Contexts:       make([]*Context, 0, len(doc.Contexts)),
	}
	for _, xc := range doc.Contexts {
		ctx := &Context{
			Name:     xc.Name,
			Comment:  xc.Comment,
			Messages: make([]*Message, 0, len(xc.Messages)),
		}
		for _, xm := range xc.Messages {
			status, err := ParseStatus(xm.Translation.Type)
			if err != nil {
				return nil, &ParseError{Filename: filename, err: fmt.Errorf("context %q, source %q: %w", xc.Name, xm.Source, err)}
			}
			msg := &Message{
				ID:                xm.ID,
				Source:            xm.Source,
				Comment:           xm.Comment,
				OldSource:         xm.OldSource,
				OldComment:        xm.OldComment,
				ExtraComment:      xm.ExtraComment,
				TranslatorComment: xm.TranslatorComment,
				Numerus:           xm.Numerus == "yes",
				Status:            status,
			}
			if len(xm.Translation.NumerusForms) > 0 {
				// Forms without numerus="yes" still make a numerus message.
				msg.Numerus = true
				msg.NumerusForms = xm.Translation.NumerusForms
			} else {
				msg.Translation = xm.Translation.Text
			}
			for _, loc := range xm.Locations {
				msg.Locations = append(msg.Locations, Location{Filename: loc.Filename, Line: loc.Line})
			}
			ctx.Messages = append(ctx.Messages, msg)
		}
		catalog.Contexts = append(catalog.Contexts, ctx)
	}
	return catalog, nil
}

// tsWriter keeps the first encoding error so element writers can be chained.
type tsWriter struct {
	enc *xml.Encoder
	err error
}

func (w *tsWriter) token(t xml.Token) {
	if w.err != nil {
		return
	}
	w.err = w.enc.EncodeToken(t)
}

func (w *tsWriter) element(name string, text string, attrs ...xml.Attr) {
	start := xml.StartElement{Name: xml.Name{Local: name}, Attr: attrs}
	w.token(start)
	if text != "" {
		w.token(xml.CharData(text))
	}
	w.token(start.End())
}

func (w *tsWriter) optional(name string, text string) {
	if text != "" {
		w.element(name, text)
	}
}

func attr(name string, value string) xml.Attr {
	return xml.Attr{Name: xml.Name{Local: name}, Value: value}
}

// Encode writes c as a .ts document. Newlines inside texts are written
// literally; the type attribute is only present for non-finished messages.
func Encode(out io.Writer, c *Catalog) error {
	if _, err := io.WriteString(out, tsPreamble); err != nil {
		return err
	}
	enc := xml.NewEncoder(out)
	enc.Indent("", "    ")
	w := &tsWriter{enc: enc}

	version := c.Version
	if version == "" {
		version = DefaultVersion
	}
	rootAttrs := []xml.Attr{attr("version", version)}
	if c.Language != "" {
		rootAttrs = append(rootAttrs, attr("language", c.Language))
	}
	if c.SourceLanguage != "" {
		rootAttrs = append(rootAttrs, attr("sourcelanguage", c.SourceLanguage))
	}
	root := xml.StartElement{Name: xml.Name{Local: "TS"}, Attr: rootAttrs}
	w.token(root)
	for _, ctx := range c.Contexts {
		start := xml.StartElement{Name: xml.Name{Local: "context"}}
		w.token(start)
		w.element("name", ctx.Name)
		w.optional("comment", ctx.Comment)
		for _, msg := range ctx.Messages {
			writeMessage(w, msg)
		}
		w.token(start.End())
	}
	w.token(root.End())
	if w.err != nil {
		return w.err
	}
	if err := enc.Flush(); err != nil {
		return err
	}
	_, err := io.WriteString(out, "\n")
	return err
}

func writeMessage(w *tsWriter, msg *Message) {
	var attrs []xml.Attr
	if msg.ID != "" {
		attrs = append(attrs, attr("id", msg.ID))
	}
	if msg.Numerus {
		attrs = append(attrs, attr("numerus", "yes"))
	}
	start := xml.StartElement{Name: xml.Name{Local: "message"}, Attr: attrs}
	w.token(start)
	for _, loc := range msg.Locations {
		var locAttrs []xml.Attr
		if loc.Filename != "" {
			locAttrs = append(locAttrs, attr("filename", loc.Filename))
		}
		if loc.Line != "" {
			locAttrs = append(locAttrs, attr("line", loc.Line))
		}
		w.element("location", "", locAttrs...)
	}
	w.element("source", msg.Source)
	w.optional("oldsource", msg.OldSource)
	w.optional("comment", msg.Comment)
	w.optional("oldcomment", msg.OldComment)
	w.optional("extracomment", msg.ExtraComment)
	w.optional("translatorcomment", msg.TranslatorComment)

	var transAttrs []xml.Attr
	if typ := msg.Status.typeAttr(); typ != "" {
		transAttrs = append(transAttrs, attr("type", typ))
	}
	if len(msg.NumerusForms) > 0 {
		trans := xml.StartElement{Name: xml.Name{Local: "translation"}, Attr: transAttrs}
		w.token(trans)
		for _, form := range msg.NumerusForms {
			w.element("numerusform", form)
		}
		w.token(trans.End())
	} else {
		w.element("translation", msg.Translation, transAttrs...)
	}
	w.token(start.End())
}

// WriteFile encodes c into path, replacing any existing file.
func WriteFile(path string, c *Catalog) error {
	var buf bytes.Buffer
	if err := Encode(&buf, c); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
