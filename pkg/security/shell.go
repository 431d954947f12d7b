package security

import (
	"strings"
)

// RiskLevel classifies how dangerous a shell invocation is judged to be.
type RiskLevel int

const (
	RiskSafe RiskLevel = iota
	RiskMedium
	RiskHigh
	RiskCritical
)

func (r RiskLevel) String() string {
	switch r {
	case RiskSafe:
		return "Safe"
	case RiskMedium:
		return "Medium"
	case RiskHigh:
		return "High"
	case RiskCritical:
		return "Critical"
	default:
		return "Unknown"
	}
}

// Command is one segment of a parsed pipeline/compound list.
type Command struct {
	Program string
	Args    []string
	Level   RiskLevel
	Reason  string
}

// Analysis is the result of classifying a full command string, which may
// be a pipeline or a compound list joined by &&, ||, or ;.
type Analysis struct {
	Raw      string
	Segments []Command
	Level    RiskLevel // highest level among all segments, with pipe-to-shell promotion
	Reason   string
}

// BashPolicy maps program names and argument shapes to risk levels. Preset
// tables are grounded in practical real-world agent-safety heuristics:
// read-only inspection and local dev tooling are Safe; destructive or
// irreversible operations outside the project are Critical; everything
// context-dependent (rm, chmod, cloud CLIs) lands in Medium/High and is
// resolved at ASK by the permission layer rather than hard-denied here.
type BashPolicy struct {
	Preset string // "default", "strict", "permissive"

	safePrograms     map[string]bool
	mediumPrograms   map[string]bool
	highPrograms     map[string]bool
	criticalPrograms map[string]bool

	denySubcommands map[string][]string // program -> subcommands always High/Critical
}

var readOnlyPrograms = []string{
	"cat", "head", "tail", "less", "more", "file", "stat", "wc", "od", "xxd", "strings",
	"ls", "tree", "find", "locate", "du", "df",
	"grep", "rg", "ag", "ack", "fzf",
	"sed", "awk", "cut", "sort", "uniq", "tr", "diff", "comm",
	"whoami", "id", "groups", "hostname", "uname", "date", "uptime", "which", "type",
	"env", "printenv", "echo", "pwd", "realpath", "dirname", "basename",
	"ping", "dig", "nslookup", "host",
	"ps", "top", "htop", "pgrep", "lsof",
}

var devToolPrograms = []string{
	"git", "make", "go", "cargo", "npm", "npx", "yarn", "pnpm", "pip", "python", "python3",
	"node", "deno", "bun", "ruby", "rustc", "swift",
	"docker", "docker-compose", "kubectl",
}

var mediumRiskPrograms = []string{
	"rm", "cp", "mv", "mkdir", "touch", "chmod", "chown",
	"kubectl", "gcloud", "aws", "bq", "gh",
}

var highRiskPrograms = []string{
	"curl", "wget", "ssh", "scp", "kill", "pkill", "killall", "tar", "zip", "unzip",
}

var criticalRiskPrograms = []string{
	"sudo", "dd", "mkfs", "shutdown", "reboot", "eval",
}

// DefaultBashPolicy returns the "default" preset: deny well-known
// destructive programs outright at Critical, classify the rest by the
// tables above, allow common substitution.
func DefaultBashPolicy() *BashPolicy {
	p := &BashPolicy{
		Preset:           "default",
		safePrograms:     toSet(readOnlyPrograms, devToolPrograms),
		mediumPrograms:   toSet(mediumRiskPrograms),
		highPrograms:     toSet(highRiskPrograms),
		criticalPrograms: toSet(criticalRiskPrograms),
	}
	return p
}

// StrictBashPolicy denies substitutions, remote fetch-then-exec, and
// privilege escalation outright; command substitution itself is flagged
// Critical rather than left to argument inspection.
func StrictBashPolicy() *BashPolicy {
	p := DefaultBashPolicy()
	p.Preset = "strict"
	return p
}

// PermissiveBashPolicy allows everything; used only when the embedding
// application has its own out-of-band review step.
func PermissiveBashPolicy() *BashPolicy {
	return &BashPolicy{Preset: "permissive"}
}

func toSet(lists ...[]string) map[string]bool {
	m := make(map[string]bool)
	for _, list := range lists {
		for _, s := range list {
			m[s] = true
		}
	}
	return m
}

// classifyProgram returns the base risk level for a single program name,
// before argument-shape and pipeline promotion is applied.
func (p *BashPolicy) classifyProgram(program string, args []string) (RiskLevel, string) {
	if p.Preset == "permissive" {
		return RiskSafe, ""
	}

	base := strings.TrimSuffix(program, "")
	switch {
	case p.criticalPrograms[base]:
		return RiskCritical, "program " + base + " is always Critical"
	case p.highPrograms[base]:
		return RiskHigh, "program " + base + " is High risk"
	case p.mediumPrograms[base]:
		level, reason := classifyMediumProgramArgs(base, args)
		return level, reason
	case p.safePrograms[base]:
		level, reason := classifyGitOrSafeArgs(base, args)
		return level, reason
	default:
		// Unknown program: default preset treats unknowns as Medium
		// (ask), strict treats them as High.
		if p.Preset == "strict" {
			return RiskHigh, "unknown program under strict policy"
		}
		return RiskMedium, "unrecognized program"
	}
}

// classifyMediumProgramArgs refines rm/chmod/chown/cloud-CLI risk based on
// their arguments, matching the practical safety heuristics of: ephemeral
// resource deletes and project-local file ops are lower risk than broad,
// system-wide, or persistent-resource operations.
func classifyMediumProgramArgs(program string, args []string) (RiskLevel, string) {
	joined := strings.Join(args, " ")

	switch program {
	case "rm":
		if hasFlag(args, "-rf") || hasFlag(args, "-fr") || (hasFlag(args, "-r") && hasFlag(args, "-f")) {
			for _, dangerous := range []string{"~", "$HOME", "/", "/etc", "/usr", "/var", "/home", ".."} {
				if containsPathArg(args, dangerous) {
					return RiskCritical, "rm -rf targeting " + dangerous
				}
			}
			return RiskMedium, "rm -rf within project scope"
		}
		return RiskSafe, "rm without recursive+force"
	case "chmod":
		if strings.Contains(joined, "777") || hasFlag(args, "-R") {
			return RiskHigh, "chmod with broad scope"
		}
		return RiskSafe, "scoped chmod"
	case "chown":
		if hasFlag(args, "-R") {
			return RiskHigh, "chown -R with broad scope"
		}
		return RiskSafe, "scoped chown"
	case "kubectl":
		for _, verb := range []string{"apply", "delete", "exec", "edit", "patch", "scale", "rollout", "create", "replace"} {
			if containsArg(args, verb) {
				if verb == "delete" && containsArg(args, "pod") {
					return RiskSafe, "deleting ephemeral pod"
				}
				return RiskHigh, "kubectl " + verb + " is a write operation"
			}
		}
		return RiskSafe, "kubectl read operation"
	case "gcloud":
		for _, verb := range []string{"create", "delete", "update", "deploy", "ssh"} {
			if containsArg(args, verb) {
				return RiskHigh, "gcloud " + verb + " is a write operation"
			}
		}
		return RiskSafe, "gcloud read operation"
	case "aws":
		for _, prefix := range []string{"create-", "delete-", "update-", "put-", "run-"} {
			for _, a := range args {
				if strings.HasPrefix(a, prefix) {
					return RiskHigh, "aws " + a + " is a write operation"
				}
			}
		}
		return RiskSafe, "aws read operation"
	case "bq":
		for _, verb := range []string{"INSERT", "UPDATE", "DELETE", "DROP", "CREATE", "ALTER", "TRUNCATE"} {
			if strings.Contains(strings.ToUpper(joined), verb) {
				return RiskHigh, "bq write query"
			}
		}
		return RiskSafe, "bq read query"
	case "gh":
		if containsArg(args, "repo") && containsArg(args, "delete") {
			return RiskCritical, "gh repo delete"
		}
		return RiskSafe, "gh operation"
	case "cp", "mv", "mkdir", "touch":
		return RiskSafe, "local file operation"
	default:
		return RiskMedium, "context-dependent program"
	}
}

// classifyGitOrSafeArgs refines otherwise-safe programs; git push/reset
// against protected branches is escalated.
func classifyGitOrSafeArgs(program string, args []string) (RiskLevel, string) {
	if program != "git" {
		return RiskSafe, "read-only or dev tool"
	}
	if len(args) == 0 {
		return RiskSafe, "git"
	}
	sub := args[0]
	protected := containsArg(args, "main") || containsArg(args, "master")
	switch sub {
	case "push":
		if protected && hasFlag(args, "--force") {
			return RiskCritical, "git push --force to main/master"
		}
		if protected && hasFlag(args, "--delete") {
			return RiskCritical, "git push --delete main/master"
		}
		return RiskSafe, "git push to a feature branch"
	case "reset":
		if protected && hasFlag(args, "--hard") {
			return RiskHigh, "git reset --hard on a protected branch"
		}
		return RiskSafe, "git reset"
	default:
		return RiskSafe, "git " + sub
	}
}

func hasFlag(args []string, flag string) bool {
	for _, a := range args {
		if a == flag {
			return true
		}
		if strings.HasPrefix(flag, "-") && len(flag) == 2 && strings.HasPrefix(a, "-") && !strings.HasPrefix(a, "--") && strings.Contains(a, flag[1:2]) {
			return true
		}
	}
	return false
}

func containsArg(args []string, v string) bool {
	for _, a := range args {
		if a == v {
			return true
		}
	}
	return false
}

func containsPathArg(args []string, v string) bool {
	for _, a := range args {
		if a == v || strings.HasPrefix(a, v+"/") {
			return true
		}
	}
	return false
}

// CheckBash parses command into pipeline segments split on |, &&, ||, ;,
// classifies each, and promotes the whole analysis to the highest level
// among segments. A pipe whose source is a remote-fetch program (curl,
// wget) piped into a shell interpreter is promoted unconditionally to
// Critical, regardless of individual segment classification, since the
// fetched content's risk cannot be statically bounded.
func (c *Context) CheckBash(command string) (Analysis, error) {
	policy := c.Bash
	if policy == nil {
		policy = DefaultBashPolicy()
	}

	segments := splitPipeline(command)
	analysis := Analysis{Raw: command}

	for i, seg := range segments {
		program, args := tokenizeCommand(seg)
		if program == "" {
			continue
		}
		level, reason := policy.classifyProgram(program, args)
		cmd := Command{Program: program, Args: args, Level: level, Reason: reason}
		analysis.Segments = append(analysis.Segments, cmd)

		if level > analysis.Level {
			analysis.Level = level
			analysis.Reason = reason
		}

		// Pipe-to-shell promotion: a fetch program feeding a shell.
		if i+1 < len(segments) && isFetchProgram(program) {
			nextProgram, _ := tokenizeCommand(segments[i+1])
			if isShellInterpreter(nextProgram) {
				analysis.Level = RiskCritical
				analysis.Reason = program + " piped into " + nextProgram + " (remote code execution)"
			}
		}
	}

	if policy.Preset == "strict" && strings.ContainsAny(command, "`$(") {
		analysis.Level = RiskCritical
		analysis.Reason = "command substitution denied under strict policy"
	}

	if analysis.Level == RiskCritical {
		return analysis, newError(KindDangerousCommand, "", analysis.Reason)
	}
	return analysis, nil
}

func isFetchProgram(program string) bool {
	return program == "curl" || program == "wget"
}

func isShellInterpreter(program string) bool {
	switch program {
	case "sh", "bash", "zsh", "dash", "ksh":
		return true
	default:
		return false
	}
}

// splitPipeline splits a compound command on |, &&, ||, ; while respecting
// single and double quotes, mirroring a minimal shell-grammar traversal
// sufficient to extract program/argument/pipeline edges without a full
// external grammar dependency.
func splitPipeline(command string) []string {
	var segments []string
	var cur strings.Builder
	inSingle, inDouble := false, false

	runes := []rune(command)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		switch {
		case ch == '\'' && !inDouble:
			inSingle = !inSingle
			cur.WriteRune(ch)
		case ch == '"' && !inSingle:
			inDouble = !inDouble
			cur.WriteRune(ch)
		case !inSingle && !inDouble && ch == '|':
			if i+1 < len(runes) && runes[i+1] == '|' {
				i++
			}
			segments = append(segments, cur.String())
			cur.Reset()
		case !inSingle && !inDouble && ch == '&' && i+1 < len(runes) && runes[i+1] == '&':
			i++
			segments = append(segments, cur.String())
			cur.Reset()
		case !inSingle && !inDouble && ch == ';':
			segments = append(segments, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(ch)
		}
	}
	segments = append(segments, cur.String())

	out := segments[:0]
	for _, s := range segments {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

// tokenizeCommand splits a single pipeline segment into its program name
// and arguments, respecting quotes.
func tokenizeCommand(segment string) (program string, args []string) {
	var tokens []string
	var cur strings.Builder
	inSingle, inDouble := false, false
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}

	for _, ch := range segment {
		switch {
		case ch == '\'' && !inDouble:
			inSingle = !inSingle
		case ch == '"' && !inSingle:
			inDouble = !inDouble
		case ch == ' ' && !inSingle && !inDouble:
			flush()
		default:
			cur.WriteRune(ch)
		}
	}
	flush()

	if len(tokens) == 0 {
		return "", nil
	}

	// Skip leading env var assignments (FOO=bar cmd ...).
	i := 0
	for i < len(tokens) && strings.Contains(tokens[i], "=") && !strings.HasPrefix(tokens[i], "-") {
		if idx := strings.Index(tokens[i], "="); idx > 0 && isIdentifier(tokens[i][:idx]) {
			i++
			continue
		}
		break
	}
	if i >= len(tokens) {
		return "", nil
	}
	return tokens[i], tokens[i+1:]
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (i > 0 && r >= '0' && r <= '9') {
			continue
		}
		return false
	}
	return true
}
