package engine

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"polkit-audit/internal/config"
	"polkit-audit/internal/finding"
)

type fakePkg struct {
	name   string
	source bool
	files  []string
	ghosts map[string]bool
	root   string
}

func (p *fakePkg) Name() string          { return p.name }
func (p *fakePkg) IsSource() bool        { return p.source }
func (p *fakePkg) Files() []string       { return p.files }
func (p *fakePkg) IsGhost(f string) bool { return p.ghosts[f] }
func (p *fakePkg) Root() string          { return p.root }

// install writes content under the package root and records the install
// path.
func (p *fakePkg) install(t *testing.T, path string, content []byte) {
	t.Helper()
	full := filepath.Join(p.root, path)
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, content, 0644); err != nil {
		t.Fatal(err)
	}
	p.files = append(p.files, path)
}

func newFakePkg(t *testing.T, name string) *fakePkg {
	t.Helper()
	return &fakePkg{name: name, root: t.TempDir(), ghosts: map[string]bool{}}
}

func newEngine(t *testing.T, cfg config.Config) *Engine {
	t.Helper()
	e, err := New(cfg, os.Stderr)
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func sha256Spec(content []byte) string {
	sum := sha256.Sum256(content)
	return "sha256:" + hex.EncodeToString(sum[:])
}

func ids(c *finding.Collector) []string {
	var out []string
	for _, f := range c.Findings {
		out = append(out, f.ID)
	}
	return out
}

func writeHostFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCheck_SourcePackageExempt(t *testing.T) {
	e := newEngine(t, config.Default())

	pkg := newFakePkg(t, "src")
	pkg.source = true
	pkg.install(t, "/etc/polkit-1/rules.d/90-x.rules", []byte("anything"))

	var c finding.Collector
	e.Check(pkg, &c)
	if len(c.Findings) != 0 {
		t.Errorf("findings for source package: %v", ids(&c))
	}
}

func TestCheck_GhostFilesSkipped(t *testing.T) {
	e := newEngine(t, config.Default())

	pkg := newFakePkg(t, "p")
	pkg.files = append(pkg.files, "/etc/polkit-1/rules.d/90-ghost.rules")
	pkg.ghosts["/etc/polkit-1/rules.d/90-ghost.rules"] = true

	var c finding.Collector
	e.Check(pkg, &c)
	if len(c.Findings) != 0 {
		t.Errorf("findings for ghost file: %v", ids(&c))
	}
}

func TestCheck_OverrideFiles(t *testing.T) {
	cfg := config.Default()
	cfg.PrivsWhitelist = []string{"org.known", "org.known.standard"}
	e := newEngine(t, cfg)

	pkg := newFakePkg(t, "p")
	pkg.install(t, "/etc/polkit-default-privs.d/org.known", []byte("org.example.tracked auth_admin\n"))
	pkg.install(t, "/etc/polkit-default-privs.d/org.rogue", nil)

	// an action tracked only through the package's own override file
	pkg.install(t, "/usr/share/polkit-1/actions/org.example.policy", []byte(`
<policyconfig>
  <action id="org.example.tracked">
    <defaults>
      <allow_any>yes</allow_any>
      <allow_inactive>yes</allow_inactive>
      <allow_active>yes</allow_active>
    </defaults>
  </action>
</policyconfig>`))

	var c finding.Collector
	e.Check(pkg, &c)

	got := ids(&c)
	if len(got) != 1 || got[0] != finding.UnauthorizedFile {
		t.Fatalf("findings = %v, want exactly one unauthorized-file", got)
	}
	if !strings.Contains(c.Findings[0].Detail, "org.rogue") {
		t.Errorf("detail = %q, want the rogue file", c.Findings[0].Detail)
	}
	// the shared run baseline must not have absorbed the override
	if e.Baseline().Tracked("org.example.tracked") {
		t.Error("per-package override leaked into the shared baseline")
	}
}

func TestCheck_OverrideProfileVariantPreferred(t *testing.T) {
	cfg := config.Default()
	cfg.PrivsWhitelist = []string{"org.known", "org.known.standard"}
	e := newEngine(t, cfg)

	pkg := newFakePkg(t, "p")
	// base file grants nothing; the standard profile variant tracks the id
	pkg.install(t, "/etc/polkit-default-privs.d/org.known", []byte("# empty\n"))
	pkg.install(t, "/etc/polkit-default-privs.d/org.known.standard", []byte("org.example.viaprofile auth_admin\n"))
	pkg.install(t, "/usr/share/polkit-1/actions/org.example.policy", []byte(`
<policyconfig>
  <action id="org.example.viaprofile">
    <defaults><allow_any>yes</allow_any><allow_inactive>yes</allow_inactive><allow_active>yes</allow_active></defaults>
  </action>
</policyconfig>`))

	var c finding.Collector
	e.Check(pkg, &c)
	if len(c.Findings) != 0 {
		t.Errorf("findings = %v, want none (profile variant tracks the action)", ids(&c))
	}
}

func TestCheck_Actions(t *testing.T) {
	dir := t.TempDir()
	privsFile := writeHostFile(t, dir, "privs.standard", "org.example.tracked auth_admin\n")

	cfg := config.Default()
	cfg.PrivsFiles = []string{privsFile}
	e := newEngine(t, cfg)

	pkg := newFakePkg(t, "p")
	pkg.install(t, "/usr/share/polkit-1/actions/org.example.policy", []byte(`
<policyconfig>
  <action id="org.example.tracked">
    <defaults><allow_any>yes</allow_any><allow_inactive>yes</allow_inactive><allow_active>yes</allow_active></defaults>
  </action>
  <action id="org.example.untracked">
    <defaults><allow_any>no</allow_any><allow_inactive>no</allow_inactive><allow_active>auth_admin</allow_active></defaults>
  </action>
  <action id="org.example.open">
    <defaults><allow_any>yes</allow_any><allow_inactive>auth_admin</allow_inactive><allow_active>auth_admin</allow_active></defaults>
  </action>
</policyconfig>`))

	var c finding.Collector
	e.Check(pkg, &c)

	got := map[string]int{}
	for _, f := range c.Findings {
		got[f.ID]++
	}
	want := map[string]int{
		finding.UntrackedPrivilege:    1,
		finding.CantAcquirePrivilege:  1,
		finding.UnauthorizedPrivilege: 1,
	}
	for id, n := range want {
		if got[id] != n {
			t.Errorf("%s reported %d times, want %d (all: %v)", id, got[id], n, ids(&c))
		}
	}

	// detail carries the settings in fixed (any:inactive:active) order
	for _, f := range c.Findings {
		if f.ID == finding.UntrackedPrivilege && f.Detail != "org.example.untracked (no:no:auth_admin)" {
			t.Errorf("detail = %q", f.Detail)
		}
	}
}

func TestCheck_DescriptorParseErrorIsPerFile(t *testing.T) {
	e := newEngine(t, config.Default())

	pkg := newFakePkg(t, "p")
	pkg.install(t, "/usr/share/polkit-1/actions/broken.policy", []byte("<policyconfig><action"))
	pkg.install(t, "/usr/share/polkit-1/actions/ok.policy", []byte(`
<policyconfig>
  <action id="org.example.ok">
    <defaults><allow_any>no</allow_any><allow_inactive>no</allow_inactive><allow_active>auth_admin</allow_active></defaults>
  </action>
</policyconfig>`))

	var c finding.Collector
	e.Check(pkg, &c)

	got := map[string]bool{}
	for _, f := range c.Findings {
		got[f.ID] = true
	}
	if !got[finding.ParseError] {
		t.Errorf("no parse-error finding: %v", ids(&c))
	}
	// the intact descriptor was still classified
	if !got[finding.UntrackedPrivilege] {
		t.Errorf("intact descriptor not processed: %v", ids(&c))
	}
}

func TestCheck_RulesAudit(t *testing.T) {
	content := []byte("polkit.addRule(function(){});")

	dir := t.TempDir()
	wl := writeHostFile(t, dir, "rules.json", `[
  {"package": "p", "path": "/etc/polkit-1/rules.d/10-ok.rules",
   "audits": [{"bug": "bsc#1", "digest": "`+sha256Spec(content)+`"}]},
  {"package": "p", "path": "/etc/polkit-1/rules.d/20-changed.rules",
   "audits": [{"bug": "bsc#2", "digest": "`+sha256Spec([]byte("approved"))+`"}]}
]`)

	cfg := config.Default()
	cfg.Whitelists = []string{wl}
	e := newEngine(t, cfg)

	pkg := newFakePkg(t, "p")
	pkg.install(t, "/etc/polkit-1/rules.d/10-ok.rules", content)
	pkg.install(t, "/etc/polkit-1/rules.d/20-changed.rules", []byte("tampered"))
	pkg.install(t, "/etc/polkit-1/rules.d/30-unclaimed.rules", []byte("x"))

	var c finding.Collector
	e.Check(pkg, &c)

	got := map[string]string{} // id -> detail
	for _, f := range c.Findings {
		got[f.ID] = f.Detail
	}
	if len(c.Findings) != 2 {
		t.Fatalf("findings = %v, want changed-rules and unauthorized-rules", ids(&c))
	}
	if got[finding.ChangedRules] != "/etc/polkit-1/rules.d/20-changed.rules" {
		t.Errorf("changed-rules detail = %q", got[finding.ChangedRules])
	}
	if got[finding.UnauthorizedRules] != "/etc/polkit-1/rules.d/30-unclaimed.rules" {
		t.Errorf("unauthorized-rules detail = %q", got[finding.UnauthorizedRules])
	}
}

func TestNew_BrokenWhitelistSourceSkipped(t *testing.T) {
	dir := t.TempDir()
	broken := writeHostFile(t, dir, "broken.json", `{"pkg": `)
	intact := writeHostFile(t, dir, "intact.json", `[
  {"package": "p", "path": "/etc/polkit-1/rules.d/90-x.rules", "skip-digest-check": true}
]`)

	cfg := config.Default()
	cfg.Whitelists = []string{broken, intact}

	var diag bytes.Buffer
	e, err := New(cfg, &diag)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if !strings.Contains(diag.String(), "broken.json") {
		t.Errorf("diagnostic does not name the broken source: %q", diag.String())
	}
	if _, ok := e.Model().Lookup("/etc/polkit-1/rules.d/90-x.rules", "p"); !ok {
		t.Error("intact whitelist source was not loaded")
	}
}
