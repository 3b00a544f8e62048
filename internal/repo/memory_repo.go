package repo

import (
	"context"
	"sync"

	"whiteboard-api/internal/models"
)

// MemorySnapshotRepo はテスト用のインメモリ実装です
type MemorySnapshotRepo struct {
	mu       sync.RWMutex
	data     map[string]models.ShapeList
	FailWith error // 設定すると以降の操作がこのエラーを返します（障害注入用）
}

func NewMemorySnapshotRepo() *MemorySnapshotRepo {
	return &MemorySnapshotRepo{data: make(map[string]models.ShapeList)}
}

func (m *MemorySnapshotRepo) Save(ctx context.Context, roomId string, objects models.ShapeList) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	cp := make(models.ShapeList, len(objects))
	copy(cp, objects)
	m.data[roomId] = cp
	return nil
}

func (m *MemorySnapshotRepo) Load(ctx context.Context, roomId string) (models.ShapeList, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.FailWith != nil {
		return nil, false, m.FailWith
	}
	objects, ok := m.data[roomId]
	if !ok {
		return nil, false, nil
	}
	cp := make(models.ShapeList, len(objects))
	copy(cp, objects)
	return cp, true, nil
}

func (m *MemorySnapshotRepo) Delete(ctx context.Context, roomId string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, roomId)
	return nil
}

// MemoryRoomRepo はテスト用のインメモリ実装です
type MemoryRoomRepo struct {
	mu    sync.RWMutex
	rooms map[string]models.Room
	codes map[string]string // コード → ルームID
}

func NewMemoryRoomRepo() *MemoryRoomRepo {
	return &MemoryRoomRepo{
		rooms: make(map[string]models.Room),
		codes: make(map[string]string),
	}
}

func (m *MemoryRoomRepo) CreateRoom(ctx context.Context, room models.Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[room.RoomId] = room
	m.codes[room.RoomCode] = room.RoomId
	return nil
}

func (m *MemoryRoomRepo) GetRoom(ctx context.Context, roomId string) (models.Room, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[roomId]
	return r, ok, nil
}

func (m *MemoryRoomRepo) GetRoomByCode(ctx context.Context, code string) (models.Room, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.codes[code]
	if !ok {
		return models.Room{}, false, nil
	}
	r, ok := m.rooms[id]
	return r, ok, nil
}

func (m *MemoryRoomRepo) DeleteRoom(ctx context.Context, roomId string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rooms[roomId]; ok {
		delete(m.codes, r.RoomCode)
		delete(m.rooms, roomId)
	}
	return nil
}

func (m *MemoryRoomRepo) AddMember(ctx context.Context, roomId, userId string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[roomId]
	if !ok {
		return ErrRoomNotFound
	}
	for _, u := range r.Members {
		if u == userId {
			return nil
		}
	}
	r.Members = append(r.Members, userId)
	m.rooms[roomId] = r
	return nil
}

func (m *MemoryRoomRepo) ListRoomsByUser(ctx context.Context, userId string) ([]models.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := []models.Room{}
	for _, r := range m.rooms {
		for _, u := range r.Members {
			if u == userId {
				res = append(res, r)
				break
			}
		}
	}
	return res, nil
}

func (m *MemoryRoomRepo) ExistsRoomCode(ctx context.Context, code string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.codes[code]
	return ok, nil
}
