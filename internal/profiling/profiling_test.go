package profiling

import (
	"strings"
	"testing"
	"time"
)

func TestTrackAccumulates(t *testing.T) {
	ResetPass()
	for i := 0; i < 3; i++ {
		stop := Track("stage.a")
		time.Sleep(time.Millisecond)
		stop()
	}
	Track("other.b")()

	if got := Count("stage.a"); got != 3 {
		t.Fatalf("Count(stage.a) = %d, want 3", got)
	}
	if SumWithPrefix("stage.") < 3*time.Millisecond {
		t.Errorf("SumWithPrefix(stage.) = %v, want >= 3ms", SumWithPrefix("stage."))
	}
	top := TopN(1)
	if !strings.HasPrefix(top, "stage.a:") || !strings.HasSuffix(top, "x3") {
		t.Errorf("TopN(1) = %q", top)
	}

	ResetPass()
	if Count("stage.a") != 0 || SumWithPrefix("") != 0 || TopN(3) != "" {
		t.Error("ResetPass left totals behind")
	}
}
