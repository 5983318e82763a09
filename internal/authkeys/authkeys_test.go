package authkeys

import (
	"archive/tar"
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type entry struct {
	name string
	body string
	dir  bool
}

func buildArchive(t *testing.T, entries []entry) *bytes.Reader {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, e := range entries {
		hdr := &tar.Header{Name: e.name, Mode: 0o644, Size: int64(len(e.body)), Typeflag: tar.TypeReg}
		if e.dir {
			hdr = &tar.Header{Name: e.name, Mode: 0o755, Typeflag: tar.TypeDir}
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("write header: %v", err)
		}
		if !e.dir {
			if _, err := tw.Write([]byte(e.body)); err != nil {
				t.Fatalf("write body: %v", err)
			}
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("close archive: %v", err)
	}
	return bytes.NewReader(buf.Bytes())
}

func recordingLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, nil)), &buf
}

func TestParseAndWrite(t *testing.T) {
	archive := buildArchive(t, []entry{
		{name: "repos/", dir: true},
		{name: "repos/ABP", body: "# core team\nalice\n\nbob\nmallory\n"},
		{name: "repos/sitescripts", body: "alice\ncarol\n"},
		{name: "users/", dir: true},
		{name: "users/Alice", body: "AAAA\nB3Nz aC1y\n"},
		{name: "users/bob[dsa,trusted]", body: "AAAAB3NzaC1kc3M=\n"},
		{name: "users/carol[disabled]", body: "CCCC"},
		{name: ".hgtags", body: "ignored"},
	})

	log, _ := recordingLogger()
	reg, err := Parse(archive, log)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	var out strings.Builder
	if err := reg.Write(&out); err != nil {
		t.Fatalf("Write: %v", err)
	}

	want := `no-pty,environment="HGUSER=alice",environment="HGREPOS=abp sitescripts" ssh-rsa AAAAB3NzaC1y` + "\n" +
		`no-pty,environment="HGUSER=",environment="HGREPOS=abp" ssh-dss AAAAB3NzaC1kc3M=` + "\n"
	if diff := cmp.Diff(want, out.String()); diff != "" {
		t.Errorf("authorized_keys mismatch (-want +got):\n%s", diff)
	}
}

func TestParseWarnings(t *testing.T) {
	archive := buildArchive(t, []entry{
		{name: "users/dave[ecdsa]", body: "KEY"},
		{name: "repos/web", body: "dave\nghost\n"},
		{name: "README", body: "notes"},
	})

	log, buf := recordingLogger()
	reg, err := Parse(archive, log)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	for _, want := range []string{
		`msg="unknown user option" user=dave option=ecdsa`,
		`msg="unknown user listed for repository" repo=web user=ghost`,
		`msg="unrecognized file in the repository" file=README`,
	} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("log does not contain %q:\n%s", want, buf.String())
		}
	}

	dave := reg.Users["dave"]
	if dave == nil {
		t.Fatal("user dave not parsed")
	}
	if diff := cmp.Diff(&User{Name: "dave", Key: "KEY", Repos: []string{"web"}}, dave); diff != "" {
		t.Errorf("user mismatch (-want +got):\n%s", diff)
	}
}

func TestParseDotSlashPrefix(t *testing.T) {
	archive := buildArchive(t, []entry{
		{name: "./users/erin", body: "EEEE"},
		{name: "./repos/docs", body: "erin\n"},
	})

	reg, err := Parse(archive, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if diff := cmp.Diff([]string{"docs"}, reg.Users["erin"].Repos); diff != "" {
		t.Errorf("repos mismatch (-want +got):\n%s", diff)
	}
}

func TestParseCorruptArchive(t *testing.T) {
	_, err := Parse(strings.NewReader("definitely not a tar archive, but long enough to fill a header block?"), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err == nil {
		t.Error("Parse succeeded on a corrupt archive")
	}
}
