// Package jacoco implements a parser for the JaCoCo XML coverage report.
//
// The report is a tree of report, group, package and sourcefile elements,
// each carrying counter elements such as:
//
//	<counter type="LINE" missed="3" covered="17"/>
//
// Only LINE counters are read. Class and method nodes are ignored.
package jacoco

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/coverpr/internal/application"
	"github.com/felixgeelhaar/coverpr/internal/domain"
	"github.com/felixgeelhaar/coverpr/internal/pathutil"
)

const (
	rootElement = "report"
	// counterLine is the counter type carrying line coverage.
	counterLine = "LINE"
)

type report struct {
	XMLName  xml.Name
	Name     string    `xml:"name,attr"`
	Groups   []group   `xml:"group"`
	Packages []pkg     `xml:"package"`
	Counters []counter `xml:"counter"`
}

// group appears in aggregate reports of multi-module builds.
type group struct {
	Name     string  `xml:"name,attr"`
	Groups   []group `xml:"group"`
	Packages []pkg   `xml:"package"`
}

type pkg struct {
	Name        string       `xml:"name,attr"`
	SourceFiles []sourceFile `xml:"sourcefile"`
	Counters    []counter    `xml:"counter"`
}

type sourceFile struct {
	Name     string    `xml:"name,attr"`
	Counters []counter `xml:"counter"`
}

// counter attributes are kept as strings so that bad values degrade to zero
// instead of failing the whole document.
type counter struct {
	Type    string `xml:"type,attr"`
	Missed  string `xml:"missed,attr"`
	Covered string `xml:"covered,attr"`
}

// Parser implements ReportParser for JaCoCo XML.
type Parser struct{}

// New creates a new JaCoCo parser.
func New() *Parser {
	return &Parser{}
}

var _ application.ReportParser = (*Parser)(nil)

// ParseString parses report XML held in memory.
func (p *Parser) ParseString(text string) (domain.CoverageReport, error) {
	if strings.TrimSpace(text) == "" {
		return domain.CoverageReport{}, domain.ErrEmptyReport
	}
	return p.Parse(strings.NewReader(text))
}

// Parse decodes a report from r.
func (p *Parser) Parse(r io.Reader) (domain.CoverageReport, error) {
	// The DOCTYPE pointing at report.dtd is a directive and is never resolved.
	decoder := xml.NewDecoder(r)
	var doc report
	if err := decoder.Decode(&doc); err != nil {
		if err == io.EOF {
			return domain.CoverageReport{}, domain.ErrEmptyReport
		}
		return domain.CoverageReport{}, fmt.Errorf("decode jacoco xml: %w", err)
	}
	if doc.XMLName.Local != rootElement {
		return domain.CoverageReport{}, fmt.Errorf("%w: root element is <%s>", domain.ErrEmptyReport, doc.XMLName.Local)
	}
	if err := expectEOF(decoder); err != nil {
		return domain.CoverageReport{}, fmt.Errorf("decode jacoco xml: %w", err)
	}

	result := domain.CoverageReport{
		Name:  doc.Name,
		Lines: lineCounter(doc.Counters),
	}
	result.Packages = appendPackages(result.Packages, doc.Packages)
	for _, g := range doc.Groups {
		result.Packages = appendGroup(result.Packages, g)
	}
	return result, nil
}

// ParseFile reads and parses a report file.
func (p *Parser) ParseFile(path string) (domain.CoverageReport, error) {
	cleanPath, err := pathutil.ValidatePath(path)
	if err != nil {
		return domain.CoverageReport{}, fmt.Errorf("invalid path: %w", err)
	}

	file, err := os.Open(cleanPath) // #nosec G304 - path is validated above
	if err != nil {
		return domain.CoverageReport{}, fmt.Errorf("open jacoco report: %w", err)
	}
	defer file.Close()

	return p.Parse(file)
}

// expectEOF rejects content after the root element. Whitespace, comments and
// processing instructions are allowed.
func expectEOF(decoder *xml.Decoder) error {
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.Comment, xml.ProcInst:
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return fmt.Errorf("unexpected text after </%s>", rootElement)
			}
		default:
			return fmt.Errorf("unexpected %T after </%s>", tok, rootElement)
		}
	}
}

func appendGroup(out []domain.Package, g group) []domain.Package {
	out = appendPackages(out, g.Packages)
	for _, child := range g.Groups {
		out = appendGroup(out, child)
	}
	return out
}

func appendPackages(out []domain.Package, pkgs []pkg) []domain.Package {
	for _, p := range pkgs {
		files := make([]domain.SourceFile, 0, len(p.SourceFiles))
		for _, sf := range p.SourceFiles {
			files = append(files, domain.SourceFile{
				Name:  sf.Name,
				Lines: lineCounter(sf.Counters),
			})
		}
		out = append(out, domain.Package{
			Name:        p.Name,
			Lines:       lineCounter(p.Counters),
			SourceFiles: files,
		})
	}
	return out
}

// lineCounter extracts the LINE counter from a node's counters.
// A missing counter, or missing or invalid attributes, count as zero.
func lineCounter(counters []counter) domain.LineCounts {
	for _, c := range counters {
		if c.Type != counterLine {
			continue
		}
		return domain.NewLineCounts(parseCount(c.Missed), parseCount(c.Covered))
	}
	return domain.LineCounts{}
}

func parseCount(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
