// Package authkeys builds an SSH authorized_keys file for the Mercurial
// server from the contents of the access repository.
package authkeys

import (
	"archive/tar"
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"path"
	"regexp"
	"sort"
	"strings"
)

var (
	optionsPattern = regexp.MustCompile(`^(.*)\[(.*)\]$`)
	spacePattern   = regexp.MustCompile(`\s`)
)

// User is one key holder from the users/ directory.
type User struct {
	Name     string
	Key      string
	DSA      bool
	Disabled bool
	Trusted  bool
	Repos    []string
}

// KeyType returns the OpenSSH key type of the user's key.
func (u *User) KeyType() string {
	if u.DSA {
		return "ssh-dss"
	}
	return "ssh-rsa"
}

// Registry is the parsed access repository.
type Registry struct {
	Users map[string]*User
}

type repoFile struct {
	name    string
	members []byte
}

// Parse reads a tar archive of the access repository.
func Parse(r io.Reader, log *slog.Logger) (*Registry, error) {
	reg := &Registry{Users: make(map[string]*User)}
	var repos []repoFile

	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read archive: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}

		name := strings.TrimPrefix(hdr.Name, "./")
		switch {
		case strings.HasPrefix(name, "users/"):
			data, err := io.ReadAll(tr)
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", name, err)
			}
			u := parseUser(path.Base(name), log)
			u.Key = spacePattern.ReplaceAllString(string(data), "")
			reg.Users[u.Name] = u
		case strings.HasPrefix(name, "repos/"):
			data, err := io.ReadAll(tr)
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", name, err)
			}
			repos = append(repos, repoFile{name: strings.ToLower(path.Base(name)), members: data})
		case !strings.HasPrefix(name, "."):
			log.Warn("unrecognized file in the repository", "file", name)
		}
	}

	// Users may be listed after the repos that reference them.
	for _, repo := range repos {
		sc := bufio.NewScanner(bytes.NewReader(repo.members))
		for sc.Scan() {
			member := strings.TrimSpace(sc.Text())
			if member == "" || strings.HasPrefix(member, "#") {
				continue
			}
			u, ok := reg.Users[member]
			if !ok {
				log.Warn("unknown user listed for repository", "repo", repo.name, "user", member)
				continue
			}
			u.Repos = append(u.Repos, repo.name)
		}
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("read repo %s: %w", repo.name, err)
		}
	}

	return reg, nil
}

func parseUser(base string, log *slog.Logger) *User {
	u := &User{Name: strings.ToLower(base)}
	m := optionsPattern.FindStringSubmatch(u.Name)
	if m == nil {
		return u
	}

	u.Name = m[1]
	for _, opt := range strings.Split(m[2], ",") {
		switch opt {
		case "dsa":
			u.DSA = true
		case "disabled":
			u.Disabled = true
		case "trusted":
			u.Trusted = true
		default:
			log.Warn("unknown user option", "user", u.Name, "option", opt)
		}
	}
	return u
}

// Write emits one authorized_keys line per enabled user, sorted by name.
// Trusted users get an empty HGUSER.
func (r *Registry) Write(w io.Writer) error {
	names := make([]string, 0, len(r.Users))
	for name := range r.Users {
		names = append(names, name)
	}
	sort.Strings(names)

	bw := bufio.NewWriter(w)
	for _, name := range names {
		u := r.Users[name]
		if u.Disabled {
			continue
		}
		hgUser := u.Name
		if u.Trusted {
			hgUser = ""
		}
		_, err := fmt.Fprintf(bw, "no-pty,environment=\"HGUSER=%s\",environment=\"HGREPOS=%s\" %s %s\n",
			hgUser, strings.Join(u.Repos, " "), u.KeyType(), u.Key)
		if err != nil {
			return fmt.Errorf("write key of %s: %w", u.Name, err)
		}
	}
	return bw.Flush()
}

// Archive returns a tar archive of the default branch of repo.
func Archive(ctx context.Context, repo string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "hg", "-R", repo, "archive", "-r", "default", "-t", "tar", "-p", ".", "-")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("hg archive %s: %w: %s", repo, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}
