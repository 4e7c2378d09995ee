package scene

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"text/scanner"

	"github.com/binzume/shapebuilder/geom"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// mqoObject is the geometry of one Object chunk of a Metasequoia file.
type mqoObject struct {
	Name     string
	Vertexes []geom.Vector3
}

// mqoReader reads vertex data from .mqo files. Faces, materials and plugin
// data are skipped.
type mqoReader struct {
	r io.Reader
	s scanner.Scanner
}

func newMQOReader(r io.Reader, path string) *mqoReader {
	p := &mqoReader{r: r}
	p.s.Filename = path
	return p
}

func (p *mqoReader) readFloat() float32 {
	tok := p.s.Scan()
	var sign float32 = 1
	if p.s.TokenText() == "-" {
		tok = p.s.Scan()
		sign = -1
	}
	if tok != scanner.Int && tok != scanner.Float {
		return 0
	}
	n, _ := strconv.ParseFloat(p.s.TokenText(), 32)
	return float32(n) * sign
}

func (p *mqoReader) readInt() (int, error) {
	if tok := p.s.Scan(); tok != scanner.Int {
		return 0, fmt.Errorf("%s: expected number, got %q", p.s.Position, p.s.TokenText())
	}
	return strconv.Atoi(p.s.TokenText())
}

func (p *mqoReader) expect(t string) error {
	p.s.Scan()
	if p.s.TokenText() != t {
		return fmt.Errorf("%s: expected %q, got %q", p.s.Position, t, p.s.TokenText())
	}
	return nil
}

func (p *mqoReader) skipBlock() {
	for tok := p.s.Scan(); tok != scanner.EOF; tok = p.s.Scan() {
		switch p.s.TokenText() {
		case "}":
			return
		case "{":
			p.skipBlock()
		}
	}
}

func (p *mqoReader) readVertexes(o *mqoObject) error {
	n, err := p.readInt()
	if err != nil {
		return err
	}
	if err := p.expect("{"); err != nil {
		return err
	}
	o.Vertexes = make([]geom.Vector3, n)
	for i := range o.Vertexes {
		o.Vertexes[i] = geom.Vector3{X: p.readFloat(), Y: p.readFloat(), Z: p.readFloat()}
	}
	return p.expect("}")
}

func (p *mqoReader) readObject() (*mqoObject, error) {
	p.s.Scan()
	o := &mqoObject{Name: strings.Trim(p.s.TokenText(), "\"")}
	if err := p.expect("{"); err != nil {
		return nil, err
	}
	for tok := p.s.Scan(); tok != scanner.EOF; tok = p.s.Scan() {
		switch p.s.TokenText() {
		case "}":
			return o, nil
		case "{":
			p.skipBlock()
		case "vertex":
			if err := p.readVertexes(o); err != nil {
				return nil, err
			}
		}
	}
	return nil, fmt.Errorf("object %q: unexpected EOF", o.Name)
}

func (p *mqoReader) detectCodePage() {
	buf := make([]byte, 128)
	n, _ := p.r.Read(buf)
	p.r = io.MultiReader(bytes.NewReader(buf[:n]), p.r)
	if matched, _ := regexp.Match(`CodePage\s+utf8`, buf[:n]); !matched {
		p.r = transform.NewReader(p.r, japanese.ShiftJIS.NewDecoder())
	}
}

func (p *mqoReader) Read() ([]*mqoObject, error) {
	p.detectCodePage()
	p.s.Init(p.r)
	p.s.Error = func(s *scanner.Scanner, msg string) {}

	var objects []*mqoObject
	for tok := p.s.Scan(); tok != scanner.EOF; tok = p.s.Scan() {
		if tok == scanner.Ident && p.s.TokenText() == "Object" {
			o, err := p.readObject()
			if err != nil {
				return nil, err
			}
			objects = append(objects, o)
		} else if p.s.TokenText() == "{" {
			p.skipBlock()
		} else if tok == scanner.Ident && p.s.TokenText() == "Eof" {
			break
		}
	}
	return objects, nil
}
