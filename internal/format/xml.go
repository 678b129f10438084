package format

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"lineparser/internal/pipeline"
	"lineparser/internal/router"
	"lineparser/internal/table"
)

// WriteXML writes res as a <Result> document:
//
//	<Result ranAt="...">
//	  <HeaderInfo Number="42"/>                  scalar rules, all parsers
//	  <ParserInfo parser="P" routed="false"/>
//	  <Items rowCount="2"><Row i="0" page="1" .../></Items>
//	  <Lines Group="A" rowCount="1">...</Lines>  one element per partition key
//	</Result>
//
// A zero o.RanAt stamps the current time.
func WriteXML(w io.Writer, res *router.Result, o Options) error {
	ranAt := o.RanAt
	if ranAt.IsZero() {
		ranAt = time.Now()
	}

	enc := xml.NewEncoder(w)
	enc.Indent("", o.Indent)
	x := &xmlWriter{enc: enc}

	x.token(xml.ProcInst{Target: "xml", Inst: []byte(`version="1.0" encoding="utf-8" standalone="yes"`)})
	x.token(xml.CharData("\n"))
	x.start("Result", attr("ranAt", ranAt.UTC().Format(time.RFC3339Nano)))

	x.empty("HeaderInfo", headerAttrs(res.Outputs)...)
	x.empty("ParserInfo", parserInfoAttrs(res)...)

	for _, out := range res.Outputs {
		for _, r := range out.Rules {
			if r.Table.IsScalar() {
				continue
			}
			x.rule(r)
		}
	}

	x.end("Result")
	if x.err != nil {
		return fmt.Errorf("format: xml: %w", x.err)
	}
	if err := enc.Flush(); err != nil {
		return fmt.Errorf("format: xml: %w", err)
	}
	return nil
}

func attr(name, value string) xml.Attr {
	return xml.Attr{Name: xml.Name{Local: name}, Value: value}
}

// headerAttrs collects scalar rules of every output. A later rule with the
// same name (case-insensitively) replaces the earlier value in place.
func headerAttrs(outs []*pipeline.Output) []xml.Attr {
	var names, values []string
	index := map[string]int{}
	for _, out := range outs {
		for _, f := range out.Scalars() {
			key := strings.ToLower(f.Name)
			if i, ok := index[key]; ok {
				values[i] = f.Value
				continue
			}
			index[key] = len(names)
			names = append(names, f.Name)
			values = append(values, f.Value)
		}
	}
	attrs := make([]xml.Attr, len(names))
	for i, n := range uniqueAttributeNames(names) {
		attrs[i] = attr(n, values[i])
	}
	return attrs
}

func parserInfoAttrs(res *router.Result) []xml.Attr {
	attrs := []xml.Attr{attr("parser", res.Info.Parser)}
	if res.Routed && res.Info.Target != "" {
		attrs = append(attrs, attr("subparser", res.Info.Target))
	}
	attrs = append(attrs, attr("routed", strconv.FormatBool(res.Routed)))
	if res.Routed {
		if res.Info.TagRule != "" {
			attrs = append(attrs, attr("tagRule", res.Info.TagRule))
		}
		if res.Info.TagValue != "" {
			attrs = append(attrs, attr("tagValue", res.Info.TagValue))
		}
	}
	return attrs
}

// xmlWriter keeps the first encoding error so element building stays flat.
type xmlWriter struct {
	enc *xml.Encoder
	err error
}

func (x *xmlWriter) token(t xml.Token) {
	if x.err == nil {
		x.err = x.enc.EncodeToken(t)
	}
}

func (x *xmlWriter) start(name string, attrs ...xml.Attr) {
	x.token(xml.StartElement{Name: xml.Name{Local: name}, Attr: attrs})
}

func (x *xmlWriter) end(name string) { x.token(xml.EndElement{Name: xml.Name{Local: name}}) }

func (x *xmlWriter) empty(name string, attrs ...xml.Attr) {
	x.start(name, attrs...)
	x.end(name)
}

func (x *xmlWriter) rule(r pipeline.RuleOutput) {
	t := r.Table
	elem := ElementName(r.Name)
	cols := uniqueAttributeNames(t.ColumnNames(), "i", "page")

	if r.Partition != nil {
		if groups, keyCol, ok := r.Partition.Split(t); ok {
			keyAttr := AttributeName(r.Partition.KeyName(t, keyCol))
			if strings.EqualFold(keyAttr, "rowCount") {
				keyAttr += "_key"
			}
			for _, g := range groups {
				x.start(elem, attr(keyAttr, g.Key), attr("rowCount", strconv.Itoa(len(g.Rows))))
				skip := -1
				if !r.Partition.KeepKeyInRows {
					skip = keyCol
				}
				for _, i := range g.Rows {
					x.row(t, i, cols, skip)
				}
				x.end(elem)
			}
			return
		}
	}

	x.start(elem, attr("rowCount", strconv.Itoa(t.Len())))
	for i := 0; i < t.Len(); i++ {
		x.row(t, i, cols, -1)
	}
	x.end(elem)
}

func (x *xmlWriter) row(t *table.Table, i int, cols []string, skip int) {
	attrs := make([]xml.Attr, 0, len(cols)+2)
	attrs = append(attrs, attr("i", strconv.Itoa(i)), attr("page", strconv.Itoa(t.Page(i))))
	for c, name := range cols {
		if c == skip {
			continue
		}
		attrs = append(attrs, attr(name, t.Cell(i, c)))
	}
	x.empty("Row", attrs...)
}
