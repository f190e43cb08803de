package lsp

import (
	"fmt"
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/ardnew/klisp/analysis"
)

func (s *Server) textDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	s.remember(ctx)

	snap := s.snapshot(params.TextDocument.URI)
	if snap == nil {
		return nil, nil
	}

	x := newLineIndex(snap.Text)

	h, ok := snap.Hover(x.offset(params.Position))
	if !ok {
		return nil, nil
	}

	r := x.span(h.Range)

	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: hoverMarkdown(h.Definition),
		},
		Range: &r,
	}, nil
}

func hoverMarkdown(d analysis.Definition) string {
	var b strings.Builder

	if d.Kind == analysis.KindLiteral {
		fmt.Fprintf(&b, "`%s` *%s %s*", d.Name, d.Detail, d.Kind)

		return b.String()
	}

	detail := d.Detail
	if detail == "" {
		detail = d.Name
	}

	fmt.Fprintf(&b, "```klisp\n%s\n```\n*%s* `%s`", detail, d.Kind, d.Name)

	if d.Doc != "" {
		b.WriteString("\n\n")
		b.WriteString(d.Doc)
	}

	return b.String()
}

func (s *Server) textDocumentDefinition(ctx *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	s.remember(ctx)

	uri := params.TextDocument.URI

	snap := s.snapshot(uri)
	if snap == nil {
		return nil, nil
	}

	x := newLineIndex(snap.Text)

	d, ok := snap.Definition(x.offset(params.Position))
	if !ok || !d.HasLocation() || d.DocumentID != uri {
		return nil, nil
	}

	return protocol.Location{URI: uri, Range: x.span(d.Span)}, nil
}

func (s *Server) textDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	s.remember(ctx)

	snap := s.snapshot(params.TextDocument.URI)
	if snap == nil {
		return nil, nil
	}

	defs := snap.Complete(newLineIndex(snap.Text).offset(params.Position))
	items := make([]protocol.CompletionItem, 0, len(defs))

	for _, d := range defs {
		kind := completionKind(d.Kind)
		item := protocol.CompletionItem{Label: d.Name, Kind: &kind}

		if d.Detail != "" {
			detail := d.Detail
			item.Detail = &detail
		}

		if d.Doc != "" {
			item.Documentation = d.Doc
		}

		items = append(items, item)
	}

	return items, nil
}

func completionKind(k analysis.Kind) protocol.CompletionItemKind {
	switch k {
	case analysis.KindFunction, analysis.KindBuiltin:
		return protocol.CompletionItemKindFunction
	case analysis.KindSpecial:
		return protocol.CompletionItemKindKeyword
	case analysis.KindConstant:
		return protocol.CompletionItemKindConstant
	default:
		return protocol.CompletionItemKindVariable
	}
}

func (s *Server) textDocumentDocumentSymbol(ctx *glsp.Context, params *protocol.DocumentSymbolParams) (any, error) {
	s.remember(ctx)

	snap := s.snapshot(params.TextDocument.URI)
	if snap == nil {
		return nil, nil
	}

	x := newLineIndex(snap.Text)
	defs := snap.Symbols()
	symbols := make([]protocol.DocumentSymbol, 0, len(defs))

	for _, d := range defs {
		r := x.span(d.Span)
		sym := protocol.DocumentSymbol{
			Name:           d.Name,
			Kind:           symbolKind(d.Kind),
			Range:          r,
			SelectionRange: r,
		}

		if d.Detail != "" {
			detail := d.Detail
			sym.Detail = &detail
		}

		symbols = append(symbols, sym)
	}

	return symbols, nil
}

func symbolKind(k analysis.Kind) protocol.SymbolKind {
	switch k {
	case analysis.KindFunction:
		return protocol.SymbolKindFunction
	case analysis.KindConstant:
		return protocol.SymbolKindConstant
	default:
		return protocol.SymbolKindVariable
	}
}

func (s *Server) textDocumentSignatureHelp(
	ctx *glsp.Context,
	params *protocol.SignatureHelpParams,
) (*protocol.SignatureHelp, error) {
	s.remember(ctx)

	snap := s.snapshot(params.TextDocument.URI)
	if snap == nil {
		return nil, nil
	}

	d, arg, ok := snap.Signature(newLineIndex(snap.Text).offset(params.Position))
	if !ok {
		return nil, nil
	}

	names := signatureParams(d.Detail)
	info := protocol.SignatureInformation{
		Label:      d.Detail,
		Parameters: make([]protocol.ParameterInformation, 0, len(names)),
	}

	if d.Doc != "" {
		info.Documentation = d.Doc
	}

	for _, n := range names {
		info.Parameters = append(info.Parameters, protocol.ParameterInformation{Label: n})
	}

	// Arguments past a rest parameter stay on it.
	if n := len(names); n > 0 && arg >= n {
		arg = n - 1
	}

	active, param := protocol.UInteger(0), protocol.UInteger(arg)

	return &protocol.SignatureHelp{
		Signatures:      []protocol.SignatureInformation{info},
		ActiveSignature: &active,
		ActiveParameter: &param,
	}, nil
}

// signatureParams returns the parameter names of a signature such as
// "(f a b & rest)". The rest marker is folded into the name after it.
func signatureParams(detail string) []string {
	fields := strings.Fields(strings.Trim(detail, "()"))
	if len(fields) < 2 {
		return nil
	}

	var out []string

	for i := 1; i < len(fields); i++ {
		if fields[i] == "&" && i+1 < len(fields) {
			out = append(out, "& "+fields[i+1])

			break
		}

		out = append(out, fields[i])
	}

	return out
}

// diagnostics converts the diagnostics of a snapshot. The result is never
// nil so that clients clear stale entries.
func diagnostics(snap *analysis.Snapshot) []protocol.Diagnostic {
	x := newLineIndex(snap.Text)
	out := make([]protocol.Diagnostic, 0, len(snap.Diagnostics))
	source := diagSource

	for _, d := range snap.Diagnostics {
		sev := protocol.DiagnosticSeverity(d.Severity)
		pd := protocol.Diagnostic{
			Range:    x.span(d.Span),
			Severity: &sev,
			Source:   &source,
			Message:  d.Message,
		}

		if d.Code != "" {
			pd.Code = &protocol.IntegerOrString{Value: d.Code}
		}

		if d.Related != nil {
			pd.RelatedInformation = []protocol.DiagnosticRelatedInformation{{
				Location: protocol.Location{URI: snap.DocumentID, Range: x.span(d.Related.Span)},
				Message:  d.Related.Message,
			}}
		}

		out = append(out, pd)
	}

	return out
}
