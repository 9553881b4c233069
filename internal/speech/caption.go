package speech

import "strings"

// Caption joins spoken messages for display under the clock: separated by
// spaces, with a comma after the second message when there is a third.
func Caption(msgs []string) string {
	var b strings.Builder
	for i, m := range msgs {
		b.WriteString(m)
		if i == len(msgs)-1 {
			break
		}
		if i == 1 && len(msgs) > 2 {
			b.WriteString(", ")
		} else {
			b.WriteString(" ")
		}
	}
	return b.String()
}
