package events

import "testing"

func TestSubjectLayout(t *testing.T) {
	p := &Publisher{subject: DefaultSubject}
	got := p.Subject("run-1", "thought")
	if got != "thoughtbot.events.run-1.thought" {
		t.Errorf("Subject() = %q", got)
	}
}

func TestConnectRejectsBadURL(t *testing.T) {
	if _, err := Connect("nats://127.0.0.1:1", ""); err == nil {
		t.Error("Connect to a closed port should fail")
	}
}
