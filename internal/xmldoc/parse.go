// Package xmldoc decodes XML configuration and mapper documents.
package xmldoc

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"golang.org/x/net/html/charset"

	"sqlmap-builder/config"
	"sqlmap-builder/internal/document"
)

// Encoding tells the decoder what kind of stream it reads.
type Encoding int

const (
	// Text streams are already decoded; a declared encoding is ignored.
	Text Encoding = iota
	// Bytes streams are decoded using the declared encoding.
	Bytes
)

func passThrough(_ string, input io.Reader) (io.Reader, error) {
	return input, nil
}

// Parse reads one XML document into a node tree.
func Parse(r io.Reader, enc Encoding) (*document.Node, error) {
	dec := xml.NewDecoder(r)
	if enc == Bytes {
		dec.CharsetReader = charset.NewReaderLabel
	} else {
		dec.CharsetReader = passThrough
	}

	var (
		root  *document.Node
		stack []*document.Node
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			line, _ := dec.InputPos()
			return nil, fmt.Errorf("%w: line %d: %v", config.ErrMalformedDocument, line, err)
		}

		switch tok := tok.(type) {
		case xml.StartElement:
			line, _ := dec.InputPos()
			n := &document.Node{Name: tok.Name.Local, Line: line}

			for _, a := range tok.Attr {
				n.Attrs = append(n.Attrs, document.Attr{Name: a.Name.Local, Value: a.Value})
			}

			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("%w: line %d: more than one root element", config.ErrMalformedDocument, line)
				}

				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			}

			stack = append(stack, n)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) == 0 {
				continue
			}

			parent := stack[len(stack)-1]
			if k := len(parent.Children); k > 0 && parent.Children[k-1].IsText() {
				parent.Children[k-1].Text += string(tok)
				continue
			}

			parent.Children = append(parent.Children, &document.Node{Text: string(tok)})
		}
	}

	if root == nil {
		return nil, fmt.Errorf("%w: document is empty", config.ErrMalformedDocument)
	}

	return root, nil
}

// ParseMapper reads a mapper document.
func ParseMapper(r io.Reader, enc Encoding) (*document.Node, error) {
	root, err := Parse(r, enc)
	if err != nil {
		return nil, err
	}

	if root.Name != "mapper" {
		return nil, fmt.Errorf("%w: root element is <%s>, expected <mapper>", config.ErrMalformedDocument, root.Name)
	}

	return root, nil
}
