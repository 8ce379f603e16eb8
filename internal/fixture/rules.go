package fixture

import (
	"fmt"
	"strings"

	"github.com/pynezz/threatdash/pkg/types"
)

// voiceRule answers when any keyword occurs in the lowercased query.
type voiceRule struct {
	keywords []string
	answer   string
}

// first match wins
var voiceRules = []voiceRule{
	{[]string{"cve"}, "To analyze a CVE, say the ID clearly. Example: 'Analyze CVE-2024-3094'."},
	{[]string{"ransomware"}, "Ransomware is a malware that encrypts files and demands payment. Common mitigations include offline backups, endpoint monitoring, and disabling RDP."},
	{[]string{"phishing"}, "Phishing attacks trick users into giving credentials. Mitigate using email filtering, MFA, and employee awareness training."},
	{[]string{"mitre", "attack"}, "MITRE ATT&CK is a framework of attacker techniques and tactics used for threat intelligence and defense improvement."},
	{[]string{"ioc", "indicator"}, "Indicators of Compromise (IOCs) include IPs, domains, hashes, and URLs that reveal malicious activity."},
	{[]string{"hello", "hi"}, "Hello! How can I help with cybersecurity today?"},
}

const noSpeechAnswer = "I could not understand what you said."

// Answer is the rule-based voice assistant.
func Answer(query string) string {
	text := strings.TrimSpace(query)
	if text == "" {
		return noSpeechAnswer
	}
	lower := strings.ToLower(text)
	for _, r := range voiceRules {
		for _, k := range r.keywords {
			if strings.Contains(lower, k) {
				return r.answer
			}
		}
	}
	return fmt.Sprintf("You said: '%s'. I can answer cybersecurity questions, analyze CVEs, or explain threats.", text)
}

// unknownCVE is what NVD lookups fall back to.
func unknownCVE(id string) types.CVEDetails {
	return types.CVEDetails{
		ID:          id,
		Description: "No description available.",
		Severity:    types.NotAvailable,
		Score:       types.TextScore(types.NotAvailable),
		Vector:      types.NotAvailable,
		Published:   types.NotAvailable,
		Updated:     types.NotAvailable,
	}
}

// Explain produces the rule-based CVE explanation.
func Explain(d types.CVEDetails) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Severity: %s (CVSS %s)\n", types.OrNA(d.Severity), d.Score)
	fmt.Fprintf(&b, "Attack Vector: %s\n", types.OrNA(d.Vector))
	fmt.Fprintf(&b, "Description: %s\n\n", d.Description)

	lower := strings.ToLower(d.Description)
	switch {
	case strings.Contains(lower, "remote code") || strings.Contains(lower, "execute arbitrary code"):
		b.WriteString("• This is a Remote Code Execution (RCE) vulnerability.\n" +
			"• Attackers can run malicious code on the target system.\n" +
			"• Immediate patching is recommended.\n")
	case strings.Contains(lower, "bypass"):
		b.WriteString("• This is an authentication bypass vulnerability.\n" +
			"• Attackers can access systems without credentials.\n" +
			"• Enforce MFA and patch immediately.\n")
	case strings.Contains(lower, "overflow") || strings.Contains(lower, "over-read"):
		b.WriteString("• This is a buffer overflow vulnerability.\n" +
			"• Attackers may crash or take control of the program.\n" +
			"• Strongly recommended to update software.\n")
	default:
		b.WriteString("• This vulnerability may impact system security.\n" +
			"• Attackers could exploit it depending on context.\n" +
			"• Apply patches and monitor logs.\n")
	}
	return b.String()
}
