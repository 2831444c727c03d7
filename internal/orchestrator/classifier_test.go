package orchestrator

import (
	"testing"

	"github.com/SinghCoder/elevenlabs-worldwide-hackathon-submission/internal/providers/stt"
)

func TestClassifierForwardsOnlyMatches(t *testing.T) {
	type candidate struct {
		text      string
		committed bool
	}
	var got []candidate

	c := NewClassifier([]string{"hey assistant"}, testEntry(), func(text string, committed bool) {
		got = append(got, candidate{text, committed})
	})

	c.OnEvent(stt.Event{Text: "just chatting about the weather", Committed: true})
	c.OnEvent(stt.Event{Text: "HEY Assistant, what's up", Committed: false})
	c.OnEvent(stt.Event{Text: "I said hey assistant earlier", Committed: true})

	if len(got) != 2 {
		t.Fatalf("forwarded %d candidates, want 2: %+v", len(got), got)
	}
	if got[0].committed || !got[1].committed {
		t.Fatalf("committed tags wrong: %+v", got)
	}
}

func TestClassifierMultiplePhrases(t *testing.T) {
	c := NewClassifier([]string{"hey assistant", " OK Computer "}, testEntry(), func(string, bool) {})

	if !c.Matches("well ok computer then") {
		t.Fatal("second phrase not matched")
	}
	if c.Matches("nothing relevant") {
		t.Fatal("false positive")
	}
}
