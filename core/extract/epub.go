package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"net/url"
	"path"
	"sort"
	"strings"

	"github.com/siherrmann/pagerag/model"
	"golang.org/x/net/html"
)

const epubContainerPath = "META-INF/container.xml"

type epubContainer struct {
	Rootfiles []struct {
		FullPath string `xml:"full-path,attr"`
	} `xml:"rootfiles>rootfile"`
}

type epubPackage struct {
	Manifest []struct {
		ID        string `xml:"id,attr"`
		Href      string `xml:"href,attr"`
		MediaType string `xml:"media-type,attr"`
	} `xml:"manifest>item"`
	Spine []struct {
		IDRef string `xml:"idref,attr"`
	} `xml:"spine>itemref"`
}

// extractEPUB returns the text of all content documents in reading order.
func extractEPUB(data []byte) (string, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", model.NewExtractionError(model.ErrCorrupt, err)
	}

	files := make(map[string]*zip.File, len(archive.File))
	for _, f := range archive.File {
		files[f.Name] = f
	}

	order, err := epubReadingOrder(files)
	if err != nil {
		return "", model.NewExtractionError(model.ErrCorrupt, err)
	}
	if len(order) == 0 {
		return "", model.NewExtractionError(model.ErrCorrupt, fmt.Errorf("no content documents"))
	}

	var sb strings.Builder
	for _, name := range order {
		f, ok := files[name]
		if !ok {
			continue
		}
		text, err := readHTMLText(f)
		if err != nil {
			return "", model.NewExtractionError(model.ErrCorrupt, fmt.Errorf("%s: %w", name, err))
		}
		sb.WriteString(text)
		sb.WriteString("\n\n")
	}

	text := sb.String()
	if strings.TrimSpace(text) == "" {
		return "", model.NewExtractionError(model.ErrEmpty, nil)
	}
	return text, nil
}

// epubReadingOrder resolves the spine of the package document. Archives
// without a container fall back to all (X)HTML files sorted by name.
func epubReadingOrder(files map[string]*zip.File) ([]string, error) {
	containerFile, ok := files[epubContainerPath]
	if !ok {
		return htmlFilesByName(files), nil
	}

	var container epubContainer
	if err := decodeXML(containerFile, &container); err != nil {
		return nil, fmt.Errorf("container: %w", err)
	}
	if len(container.Rootfiles) == 0 {
		return nil, fmt.Errorf("container lists no package document")
	}

	opfPath := container.Rootfiles[0].FullPath
	opfFile, ok := files[opfPath]
	if !ok {
		return nil, fmt.Errorf("package document %q missing", opfPath)
	}

	var pkg epubPackage
	if err := decodeXML(opfFile, &pkg); err != nil {
		return nil, fmt.Errorf("package document: %w", err)
	}

	hrefs := make(map[string]string, len(pkg.Manifest))
	for _, item := range pkg.Manifest {
		if item.MediaType == "application/xhtml+xml" || item.MediaType == "text/html" {
			hrefs[item.ID] = item.Href
		}
	}

	base := path.Dir(opfPath)
	order := make([]string, 0, len(pkg.Spine))
	for _, ref := range pkg.Spine {
		href, ok := hrefs[ref.IDRef]
		if !ok {
			continue
		}
		if unescaped, err := url.PathUnescape(href); err == nil {
			href = unescaped
		}
		order = append(order, path.Join(base, href))
	}
	return order, nil
}

func htmlFilesByName(files map[string]*zip.File) []string {
	names := []string{}
	for name := range files {
		switch strings.ToLower(path.Ext(name)) {
		case ".xhtml", ".html", ".htm":
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func decodeXML(f *zip.File, v interface{}) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	return xml.NewDecoder(rc).Decode(v)
}

// readHTMLText collects the visible text of an (X)HTML document.
func readHTMLText(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	z := html.NewTokenizer(rc)
	var sb strings.Builder
	var inScript, inStyle bool
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if z.Err() == io.EOF {
				return sb.String(), nil
			}
			return "", z.Err()
		case html.StartTagToken, html.EndTagToken:
			tn, _ := z.TagName()
			switch string(tn) {
			case "script":
				inScript = tt == html.StartTagToken
			case "style":
				inStyle = tt == html.StartTagToken
			}
		case html.TextToken:
			if inScript || inStyle {
				continue
			}
			text := strings.TrimSpace(string(z.Text()))
			if text != "" {
				sb.WriteString(text)
				sb.WriteString(" ")
			}
		}
	}
}
