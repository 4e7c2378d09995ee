package scene

import (
	"bytes"
	"strings"
	"testing"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

const testMQO = `Metasequoia Document
Format Text Ver 1.1
CodePage utf8

Scene {
	pos 0.0000 0.0000 1500.0000
	amb 0.250 0.250 0.250
}
Material 1 {
	"mat1" col(1.000 1.000 1.000 1.000)
}
Object "empty" {
	depth 0
}
Object "arm" {
	depth 0
	visible 15
	vertex 3 {
		0.0000 0.0000 0.0000
		1.0000 -0.5000 0.0000
		2.0000 0.0000 0.2500
	}
	face 1 {
		3 V(0 1 2)
	}
}
Eof
`

func TestReadMQO(t *testing.T) {
	objects, err := newMQOReader(strings.NewReader(testMQO), "test.mqo").Read()
	if err != nil {
		t.Fatal(err)
	}
	if len(objects) != 2 {
		t.Fatal("objects: ", len(objects))
	}
	o := objects[1]
	if o.Name != "arm" || len(o.Vertexes) != 3 {
		t.Fatal("object: ", o.Name, o.Vertexes)
	}
	if o.Vertexes[1].X != 1 || o.Vertexes[1].Y != -0.5 || o.Vertexes[2].Z != 0.25 {
		t.Error("vertexes: ", o.Vertexes)
	}
}

func TestReadMQOShiftJIS(t *testing.T) {
	src := strings.Replace(testMQO, "CodePage utf8\n", "", 1)
	src = strings.Replace(src, `"arm"`, `"腕"`, 1)
	var buf bytes.Buffer
	w := transform.NewWriter(&buf, japanese.ShiftJIS.NewEncoder())
	if _, err := w.Write([]byte(src)); err != nil {
		t.Fatal(err)
	}
	w.Close()

	objects, err := newMQOReader(&buf, "sjis.mqo").Read()
	if err != nil {
		t.Fatal(err)
	}
	if len(objects) != 2 || objects[1].Name != "腕" {
		t.Error("objects: ", objects)
	}
}

func TestReadMQOTruncated(t *testing.T) {
	src := testMQO[:strings.Index(testMQO, "face")]
	if _, err := newMQOReader(strings.NewReader(src), "broken.mqo").Read(); err == nil {
		t.Error("expected error for truncated object")
	}
}
