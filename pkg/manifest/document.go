// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"os/user"
	"strings"
	"time"
)

const (
	defaultDeclaration = `version="1.0" encoding="utf-8"`
	placeholderURL     = "http://example.com"
)

var (
	// ErrInvalidManifest is the sentinel wrapped by InvalidManifestError.
	ErrInvalidManifest = errors.New("invalid manifest")

	utf8BOM = []byte{0xEF, 0xBB, 0xBF}
)

type (
	// Document is an in-memory manifest.
	Document struct {
		// Path is where the document was loaded from or last saved to.
		Path        string
		Root        *Element
		declaration string
		// Comments written before and after the root element.
		prolog, epilog []*Element
	}

	// InvalidManifestError is returned when the document is not well formed
	// or lacks the package or metadata element.
	InvalidManifestError struct {
		Path   string
		Reason string
		Err    error
	}

	// FileEntry is one <file> element of the files block.
	FileEntry struct {
		Src    string
		Target string
	}

	// DefaultOptions seeds a generated manifest.
	DefaultOptions struct {
		ID      string
		Version string
		// Author fills authors and owners. CurrentUserName is used when empty.
		Author string
		// Description defaults to "The <id> deployment package, built on <date>".
		Description string
		// Now is the build date used in the generated description.
		Now time.Time
	}
)

func (e *InvalidManifestError) Error() string {
	msg := "invalid manifest"
	if e.Path != "" {
		msg += " " + e.Path
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InvalidManifestError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInvalidManifest}
	}
	return []error{ErrInvalidManifest, e.Err}
}

// Open reads and parses the manifest at path.
func Open(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	return Parse(f, path)
}

// Parse reads a manifest from r. path is only used in error messages and
// becomes the document's Path. Comments and CDATA sections survive a later
// Save; whitespace between elements is regenerated.
func Parse(r io.Reader, path string) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &InvalidManifestError{Path: path, Reason: "unreadable", Err: err}
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	d := &Document{Path: path}
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = true

	var stack []*Element
	for {
		start := dec.InputOffset()
		tok, err := dec.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &InvalidManifestError{Path: path, Reason: "malformed XML", Err: err}
		}

		switch t := tok.(type) {
		case xml.ProcInst:
			if t.Target == "xml" {
				d.declaration = strings.TrimSpace(string(t.Inst))
			}
		case xml.Comment:
			c := NewComment(string(t))
			switch {
			case len(stack) > 0:
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, c)
			case d.Root == nil:
				d.prolog = append(d.prolog, c)
			default:
				d.epilog = append(d.epilog, c)
			}
		case xml.StartElement:
			el := &Element{Name: t.Name, Attrs: append([]xml.Attr(nil), t.Attr...)}
			if len(stack) == 0 {
				if d.Root != nil {
					return nil, &InvalidManifestError{Path: path, Reason: "more than one root element"}
				}
				d.Root = el
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, el)
			}
			stack = append(stack, el)
		case xml.EndElement:
			if len(stack) == 0 || stack[len(stack)-1].Name != t.Name {
				return nil, &InvalidManifestError{Path: path, Reason: fmt.Sprintf("unexpected closing tag </%s>", qualified(t.Name))}
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				el := stack[len(stack)-1]
				el.Text += string(t)
				if bytes.HasPrefix(data[start:dec.InputOffset()], []byte("<![CDATA[")) {
					el.CDATA = true
				}
			}
		}
	}

	if len(stack) > 0 {
		return nil, &InvalidManifestError{Path: path, Reason: fmt.Sprintf("element <%s> is not closed", qualified(stack[len(stack)-1].Name))}
	}
	if d.Root == nil {
		return nil, &InvalidManifestError{Path: path, Reason: "document is empty"}
	}
	return d, nil
}

// CreateDefault synthesizes a minimal manifest.
func CreateDefault(opts DefaultOptions) *Document {
	author := opts.Author
	if author == "" {
		author = CurrentUserName()
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	description := opts.Description
	if description == "" {
		description = fmt.Sprintf("The %s deployment package, built on %s", opts.ID, now.Format("1/2/2006"))
	}

	root := NewElement("package", "")
	metadata := root.AddChild("metadata", "")
	metadata.AddChild("id", opts.ID)
	metadata.AddChild("version", opts.Version)
	metadata.AddChild("authors", author)
	metadata.AddChild("owners", author)
	metadata.AddChild("licenseUrl", placeholderURL)
	metadata.AddChild("projectUrl", placeholderURL)
	metadata.AddChild("requireLicenseAcceptance", "false")
	metadata.AddChild("description", description)
	metadata.AddChild("releaseNotes", "")

	return &Document{Root: root}
}

// CurrentUserName returns the login name of the current OS user without any
// domain prefix.
func CurrentUserName() string {
	name := ""
	if u, err := user.Current(); err == nil {
		name = u.Username
	}
	if name == "" {
		name = os.Getenv("USER")
	}
	if name == "" {
		name = os.Getenv("USERNAME")
	}
	if i := strings.LastIndex(name, `\`); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// Validate checks the structure the engine edits: a package root with
// exactly one metadata block and at most one files block.
func (d *Document) Validate() error {
	_, err := d.metadata()
	if err != nil {
		return err
	}
	if n := len(d.Root.ChildrenIgnoringNamespace("files")); n > 1 {
		return d.invalid(fmt.Sprintf("found %d <files> elements, expected at most one", n))
	}
	return nil
}

func (d *Document) invalid(reason string) error {
	return &InvalidManifestError{Path: d.Path, Reason: reason}
}

func (d *Document) pkg() (*Element, error) {
	if d.Root == nil || d.Root.Name.Local != "package" {
		return nil, d.invalid("the root <package> element is missing")
	}
	return d.Root, nil
}

func (d *Document) metadata() (*Element, error) {
	root, err := d.pkg()
	if err != nil {
		return nil, err
	}
	all := root.ChildrenIgnoringNamespace("metadata")
	switch len(all) {
	case 0:
		return nil, d.invalid("the <metadata> element is missing")
	case 1:
		return all[0], nil
	default:
		return nil, d.invalid(fmt.Sprintf("found %d <metadata> elements, expected exactly one", len(all)))
	}
}

func (d *Document) metadataValue(local string) string {
	md, err := d.metadata()
	if err != nil {
		return ""
	}
	return md.FindChildIgnoringNamespace(local).Value()
}

// setMetadataValue overwrites the field or appends it to the metadata block.
func (d *Document) setMetadataValue(local, value string) error {
	md, err := d.metadata()
	if err != nil {
		return err
	}
	if field := md.FindChildIgnoringNamespace(local); field != nil {
		field.Text = value
		return nil
	}
	md.AddChild(local, value)
	return nil
}

// ID returns the package id, or "" when absent.
func (d *Document) ID() string { return d.metadataValue("id") }

// Version returns the package version, or "" when absent.
func (d *Document) Version() string { return d.metadataValue("version") }

// SetVersion overwrites the version field.
func (d *Document) SetVersion(v string) error {
	return d.setMetadataValue("version", v)
}

// ReleaseNotes returns the release notes field, or "" when absent.
func (d *Document) ReleaseNotes() string { return d.metadataValue("releaseNotes") }

// SetReleaseNotes overwrites or adds the releaseNotes field. Blank text is a
// no-op, even on a document without metadata.
func (d *Document) SetReleaseNotes(text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return d.setMetadataValue("releaseNotes", text)
}

// RewritePackageID appends "." + suffix to the id. A blank suffix is a no-op.
func (d *Document) RewritePackageID(suffix string) error {
	suffix = strings.TrimSpace(suffix)
	if suffix == "" {
		return nil
	}
	md, err := d.metadata()
	if err != nil {
		return err
	}
	id := md.FindChildIgnoringNamespace("id")
	if id == nil {
		return d.invalid("the <id> element is missing")
	}
	id.Text = id.Value() + "." + suffix
	return nil
}

// HasFilesAlready reports whether a files block with at least one entry exists.
func (d *Document) HasFilesAlready() bool {
	root, err := d.pkg()
	if err != nil {
		return false
	}
	files := root.FindChildIgnoringNamespace("files")
	return files != nil && len(files.ChildrenIgnoringNamespace("file")) > 0
}

// AppendFile adds a <file src target/> entry, creating the files block when
// needed. Entries are not deduplicated.
func (d *Document) AppendFile(src, target string) error {
	root, err := d.pkg()
	if err != nil {
		return err
	}
	files := root.FindChildIgnoringNamespace("files")
	if files == nil {
		files = root.AddChild("files", "")
	}
	file := files.AddChild("file", "")
	file.SetAttr("src", src)
	file.SetAttr("target", target)
	return nil
}

// Files returns the entries of the files block in document order.
func (d *Document) Files() []FileEntry {
	if d.Root == nil {
		return nil
	}
	var out []FileEntry
	for _, f := range d.Root.FindChildIgnoringNamespace("files").ChildrenIgnoringNamespace("file") {
		src, _ := f.Attr("src")
		target, _ := f.Attr("target")
		out = append(out, FileEntry{Src: src, Target: target})
	}
	return out
}

// WriteTo serializes the whole document.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	if d.Root == nil {
		return 0, d.invalid("document is empty")
	}
	var buf bytes.Buffer
	decl := d.declaration
	if decl == "" {
		decl = defaultDeclaration
	}
	buf.WriteString("<?xml " + decl + "?>\n")
	for _, c := range d.prolog {
		if err := c.write(&buf, 0); err != nil {
			return 0, err
		}
	}
	if err := d.Root.write(&buf, 0); err != nil {
		return 0, err
	}
	for _, c := range d.epilog {
		if err := c.write(&buf, 0); err != nil {
			return 0, err
		}
	}
	return buf.WriteTo(w)
}

// Bytes returns the serialized document.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := d.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes the document to path and records path as the document's Path.
func (d *Document) Save(path string) error {
	data, err := d.Bytes()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("save manifest: %w", err)
	}
	d.Path = path
	return nil
}
