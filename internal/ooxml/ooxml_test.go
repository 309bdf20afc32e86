// Copyright 2026 Conductor OSS
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.

package ooxml

import (
	"archive/zip"
	"encoding/xml"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePackage(t *testing.T, parts map[string]string) string {
	t.Helper()
	name := filepath.Join(t.TempDir(), "pkg.zip")
	f, err := os.Create(name)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for p, content := range parts {
		w, err := zw.Create(p)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return name
}

func TestPackage(t *testing.T) {
	t.Parallel()
	name := writePackage(t, map[string]string{
		"word/document.xml": "<doc/>",
		"word/_rels/document.xml.rels": `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="hyperlink" Target="https://example.com" TargetMode="External"/>
<Relationship Id="rId2" Type="image" Target="media/a.png"/>
</Relationships>`,
	})

	pkg, err := Open(name)
	require.NoError(t, err)
	defer pkg.Close()

	assert.True(t, pkg.Has("word/document.xml"))
	assert.False(t, pkg.Has("word/styles.xml"))
	assert.ElementsMatch(t, []string{"word/document.xml", "word/_rels/document.xml.rels"}, pkg.Parts("word/"))

	data, err := pkg.ReadPart("word/document.xml")
	require.NoError(t, err)
	assert.Equal(t, "<doc/>", string(data))

	_, err = pkg.ReadPart("missing.xml")
	assert.ErrorIs(t, err, ErrPartNotFound)

	rels, err := pkg.Relationships("word/document.xml")
	require.NoError(t, err)
	require.Len(t, rels, 2)
	assert.True(t, rels["rId1"].External())
	assert.Equal(t, "https://example.com", rels["rId1"].Target)
	assert.False(t, rels["rId2"].External())

	rels, err = pkg.Relationships("word/styles.xml")
	require.NoError(t, err)
	assert.Empty(t, rels)
}

func TestOpenNotZip(t *testing.T) {
	t.Parallel()
	name := filepath.Join(t.TempDir(), "x.docx")
	require.NoError(t, os.WriteFile(name, []byte("plain text"), 0o600))
	_, err := Open(name)
	assert.Error(t, err)
}

func TestPaths(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "ppt/slides/_rels/slide1.xml.rels", RelsPath("ppt/slides/slide1.xml"))
	assert.Equal(t, "_rels/.rels", RelsPath(""))
	assert.Equal(t, "ppt/slides/slide2.xml", ResolveTarget("ppt/presentation.xml", "slides/slide2.xml"))
	assert.Equal(t, "ppt/notesSlides/notesSlide1.xml", ResolveTarget("ppt/slides/slide1.xml", "../notesSlides/notesSlide1.xml"))
	assert.Equal(t, "ppt/media/a.png", ResolveTarget("ppt/slides/slide1.xml", "/ppt/media/a.png"))
}

func TestAttributes(t *testing.T) {
	t.Parallel()
	el := xml.StartElement{
		Name: xml.Name{Local: "sldId"},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "id"}, Value: "256"},
			{Name: xml.Name{Space: "http://schemas.openxmlformats.org/officeDocument/2006/relationships", Local: "id"}, Value: "rId2"},
		},
	}
	assert.Equal(t, "rId2", RelID(el))
	assert.Equal(t, "256", Attr(el, "id"))
	assert.Empty(t, Attr(el, "name"))
	assert.Empty(t, RelID(xml.StartElement{}))
}
