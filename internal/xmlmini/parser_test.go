package xmlmini_test

import (
	"strings"
	"testing"

	"github.com/hatemcha4ut/api.hotel.com.tn-sub000/internal/xmlmini"
)

func TestParse_NestedTree(t *testing.T) {
	raw := []byte(`<?xml version="1.0" encoding="utf-8"?>
<ListCityResponse>
  <City><Id>1</Id><Name>Tunis</Name></City>
  <City><Id>2</Id><Name>Sousse</Name></City>
</ListCityResponse>`)

	root, err := xmlmini.Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if root.Tag != "ListCityResponse" {
		t.Fatalf("root tag = %q", root.Tag)
	}
	cities := root.FindAll("City")
	if len(cities) != 2 {
		t.Fatalf("expected 2 City elements, got %d", len(cities))
	}
	if got := cities[1].ChildText("Name"); got != "Sousse" {
		t.Fatalf("second city name = %q", got)
	}
}

func TestParse_BOMAndNULStripped(t *testing.T) {
	raw := append([]byte{0xEF, 0xBB, 0xBF}, []byte("<A><B>x\x00y</B></A>")...)
	root, err := xmlmini.Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := root.ChildText("B"); got != "xy" {
		t.Fatalf("B text = %q", got)
	}
}

func TestParse_SelfClosingAndMixedText(t *testing.T) {
	root, err := xmlmini.Parse([]byte(`<Hotel><Image/>Sea view<Star>4</Star></Hotel>`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if root.FindFirst("Image") == nil {
		t.Fatal("self-closing Image not found")
	}
	if root.Text != "Sea view" {
		t.Fatalf("mixed text = %q", root.Text)
	}
	if got := root.ChildText("Star"); got != "4" {
		t.Fatalf("star = %q", got)
	}
}

func TestParse_MismatchedCloseFailsFast(t *testing.T) {
	_, err := xmlmini.Parse([]byte(`<A><B>x</C></A>`))
	if err == nil {
		t.Fatal("expected error for mismatched close tag")
	}
	if !strings.Contains(err.Error(), "mismatched close tag") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParse_UnclosedTag(t *testing.T) {
	_, err := xmlmini.Parse([]byte(`<A><B>x</B>`))
	if err == nil {
		t.Fatal("expected error for unclosed tag")
	}
}

func TestParse_Entities(t *testing.T) {
	root, err := xmlmini.Parse([]byte(`<N>Caf&eacute;? No: R&amp;B &lt;Hotel&gt;</N>`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := root.Text; !strings.Contains(got, "R&B <Hotel>") {
		t.Fatalf("unescaped text = %q", got)
	}
}

func TestFindFirst_DepthFirst(t *testing.T) {
	root, err := xmlmini.Parse([]byte(`<R><X><T>inner</T></X><T>outer</T></R>`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := root.FindFirst("T").Text; got != "inner" {
		t.Fatalf("depth-first FindFirst = %q", got)
	}
}
