package elevenlabs

import (
	"bytes"
	"testing"

	"github.com/wandervoice/relay/pkg/relay"
)

func TestPassThrough(t *testing.T) {
	r := New(Config{AgentID: "agent-1"})

	frames := []relay.Frame{
		relay.Text([]byte(`{"user_audio_chunk":"UklGRg=="}`)),
		relay.Binary([]byte{0x01, 0x02, 0x03}),
		relay.Text([]byte("")),
	}

	t.Run("client frames forwarded verbatim", func(t *testing.T) {
		for _, f := range frames {
			routed := r.ClientFrame(f)
			if len(routed.ToUpstream) != 1 || len(routed.ToClient) != 0 || routed.Close {
				t.Fatalf("unexpected routing for %v", f)
			}
			got := routed.ToUpstream[0]
			if got.Type != f.Type || !bytes.Equal(got.Data, f.Data) {
				t.Errorf("frame altered in transit: got %v, want %v", got, f)
			}
		}
	})

	t.Run("upstream frames forwarded verbatim", func(t *testing.T) {
		for _, f := range frames {
			routed := r.UpstreamFrame(f)
			if len(routed.ToClient) != 1 || len(routed.ToUpstream) != 0 || routed.Close {
				t.Fatalf("unexpected routing for %v", f)
			}
			got := routed.ToClient[0]
			if got.Type != f.Type || !bytes.Equal(got.Data, f.Data) {
				t.Errorf("frame altered in transit: got %v, want %v", got, f)
			}
		}
	})
}
