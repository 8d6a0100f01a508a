package engine

import (
	"math/rand/v2"
	"testing"

	"github.com/MKhiriev/wallet-cloud-sync/models"
	"github.com/stretchr/testify/assert"
)

func TestResolve_Priority(t *testing.T) {
	tests := []struct {
		name  string
		flags func(f *flags)
		want  target
	}{
		{
			name:  "connectivity beats everything",
			flags: func(f *flags) { f.enabled, f.waitingForConnectivity, f.waitingForCredentials, f.needsCreate = true, true, true, true },
			want:  target{kind: KindWaiting, reason: ForConnectivity},
		},
		{
			name:  "credentials before work",
			flags: func(f *flags) { f.enabled, f.waitingForCredentials, f.needsCreate = true, true, true },
			want:  target{kind: KindWaiting, reason: ForCredentials},
		},
		{
			name:  "create before download",
			flags: func(f *flags) { f.enabled, f.needsCreate = true, true; f.needsDownload[models.SubKindPayment] = true },
			want:  target{kind: KindUpdatingCloud, cloud: CreatingContainer},
		},
		{
			name:  "download before upload",
			flags: func(f *flags) { f.enabled = true; f.needsDownload[models.SubKindContact] = true; f.queueCount[models.SubKindPayment] = 3 },
			want:  target{kind: KindDownloading},
		},
		{
			name:  "upload when queued",
			flags: func(f *flags) { f.enabled = true; f.queueCount[models.SubKindPayment] = 1 },
			want:  target{kind: KindUploading},
		},
		{
			name:  "synced when nothing to do",
			flags: func(f *flags) { f.enabled = true; f.queueCount[models.SubKindPayment] = 0 },
			want:  target{kind: KindSynced},
		},
		{
			name:  "disabled deletes container",
			flags: func(f *flags) { f.needsDelete = true; f.queueCount[models.SubKindPayment] = 5 },
			want:  target{kind: KindUpdatingCloud, cloud: DeletingContainer},
		},
		{
			name:  "disabled ignores create and queue",
			flags: func(f *flags) { f.needsCreate = true; f.queueCount[models.SubKindPayment] = 5 },
			want:  target{kind: KindDisabled},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFlags()
			tt.flags(&f)
			assert.Equal(t, tt.want, resolve(f))
		})
	}
}

func TestResolve_Pure(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 500; i++ {
		f := newFlags()
		f.enabled = r.IntN(2) == 0
		f.needsCreate = r.IntN(2) == 0
		f.needsDelete = r.IntN(2) == 0
		f.waitingForConnectivity = r.IntN(4) == 0
		f.waitingForCredentials = r.IntN(4) == 0
		for _, sk := range models.SubKinds {
			f.needsDownload[sk] = r.IntN(3) == 0
			f.queueCount[sk] = r.IntN(3)
		}

		first := resolve(f)
		for j := 0; j < 3; j++ {
			assert.Equal(t, first, resolve(f))
		}
	}
}
