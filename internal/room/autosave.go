package room

import (
	"context"
	"log"
	"sync"
	"time"

	"whiteboard-api/internal/repo"
)

// Autosaver は常駐ルームを定期的にスナップショットへ書き出します
// ライトビハインド方式で、ライブクライアントにとってはメモリ上の
// オブジェクト列が正であり、ストアはスイープ間隔の範囲で追従します
type Autosaver struct {
	reg       *Registry
	snapshots repo.SnapshotRepo
	interval  time.Duration

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewAutosaver は新しいAutosaverを作成します
func NewAutosaver(reg *Registry, snapshots repo.SnapshotRepo, interval time.Duration) *Autosaver {
	return &Autosaver{
		reg:       reg,
		snapshots: snapshots,
		interval:  interval,
		done:      make(chan struct{}),
	}
}

// Start はスイープループを開始します
func (a *Autosaver) Start() {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ticker := time.NewTicker(a.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				a.Sweep(context.Background())
			case <-a.done:
				return
			}
		}
	}()
}

// Stop はループを止め、進行中のスイープの完了を待ちます
// 二重に呼んでも安全です
func (a *Autosaver) Stop() {
	a.stopOnce.Do(func() { close(a.done) })
	a.wg.Wait()
}

// Sweep はdirtyなルームを並列に保存します
// 1ルームの保存失敗は記録だけしてフラグを残し、他のルームには影響させません
func (a *Autosaver) Sweep(ctx context.Context) {
	var wg sync.WaitGroup
	for _, r := range a.reg.Rooms() {
		if !r.Dirty() {
			continue
		}
		wg.Add(1)
		go func(r *Room) {
			defer wg.Done()
			if err := r.Flush(ctx, a.snapshots); err != nil {
				log.Printf("autosave failed: roomId=%s error=%v", r.ID(), err)
				return
			}
			log.Printf("autosave: roomId=%s", r.ID())
		}(r)
	}
	wg.Wait()
}
