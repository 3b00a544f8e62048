package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"whiteboard-api/internal/models"
)

func snapshotKey(id string) string {
	return fmt.Sprintf("snapshots:%s", id)
}
func roomKey(id string) string {
	return fmt.Sprintf("rooms:%s", id)
}
func roomCodeKey(code string) string {
	return fmt.Sprintf("roomcodes:%s", code)
}
func userRoomsKey(userId string) string {
	return fmt.Sprintf("users:%s:rooms", userId)
}

// RedisSnapshotRepo はスナップショットをJSONドキュメントとしてRedisに保存します
type RedisSnapshotRepo struct{ rdb *redis.Client }

func NewRedisSnapshotRepo(rdb *redis.Client) *RedisSnapshotRepo {
	return &RedisSnapshotRepo{rdb: rdb}
}

func (sr *RedisSnapshotRepo) Save(ctx context.Context, roomId string, objects models.ShapeList) error {
	if objects == nil {
		objects = models.ShapeList{}
	}
	b, err := json.Marshal(models.Snapshot{RoomId: roomId, Objects: objects})
	if err != nil {
		return err
	}
	return sr.rdb.Set(ctx, snapshotKey(roomId), b, 0).Err()
}

func (sr *RedisSnapshotRepo) Load(ctx context.Context, roomId string) (models.ShapeList, bool, error) {
	val, err := sr.rdb.Get(ctx, snapshotKey(roomId)).Bytes()
	if err == redis.Nil { // データがない
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var snap models.Snapshot
	if err := json.Unmarshal(val, &snap); err != nil {
		return nil, false, err
	}
	return snap.Objects, true, nil
}

func (sr *RedisSnapshotRepo) Delete(ctx context.Context, roomId string) error {
	return sr.rdb.Del(ctx, snapshotKey(roomId)).Err()
}

// RedisRoomRepo はルームメタデータをRedisに保存します
type RedisRoomRepo struct{ rdb *redis.Client }

func NewRedisRoomRepo(rdb *redis.Client) *RedisRoomRepo {
	return &RedisRoomRepo{rdb: rdb}
}

func (rr *RedisRoomRepo) CreateRoom(ctx context.Context, room models.Room) error {
	b, err := json.Marshal(room)
	if err != nil {
		return err
	}
	pipe := rr.rdb.TxPipeline()
	pipe.Set(ctx, roomKey(room.RoomId), b, 0)
	pipe.Set(ctx, roomCodeKey(room.RoomCode), room.RoomId, 0) // コード→ID の索引
	pipe.SAdd(ctx, userRoomsKey(room.OwnerId), room.RoomId)
	_, err = pipe.Exec(ctx)
	return err
}

func (rr *RedisRoomRepo) GetRoom(ctx context.Context, roomId string) (models.Room, bool, error) {
	val, err := rr.rdb.Get(ctx, roomKey(roomId)).Bytes()
	if err == redis.Nil {
		return models.Room{}, false, nil
	}
	if err != nil {
		return models.Room{}, false, err
	}
	var r models.Room
	if err := json.Unmarshal(val, &r); err != nil {
		return models.Room{}, false, err
	}
	return r, true, nil
}

func (rr *RedisRoomRepo) GetRoomByCode(ctx context.Context, code string) (models.Room, bool, error) {
	roomId, err := rr.rdb.Get(ctx, roomCodeKey(code)).Result()
	if err == redis.Nil {
		return models.Room{}, false, nil
	}
	if err != nil {
		return models.Room{}, false, err
	}
	return rr.GetRoom(ctx, roomId)
}

func (rr *RedisRoomRepo) DeleteRoom(ctx context.Context, roomId string) error {
	room, ok, err := rr.GetRoom(ctx, roomId)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	pipe := rr.rdb.TxPipeline()
	pipe.Del(ctx, roomKey(roomId))
	pipe.Del(ctx, roomCodeKey(room.RoomCode))
	for _, uid := range room.Members {
		pipe.SRem(ctx, userRoomsKey(uid), roomId)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (rr *RedisRoomRepo) AddMember(ctx context.Context, roomId, userId string) error {
	room, ok, err := rr.GetRoom(ctx, roomId)
	if err != nil {
		return err
	}
	if !ok {
		return ErrRoomNotFound
	}
	for _, m := range room.Members {
		if m == userId {
			return nil
		}
	}
	room.Members = append(room.Members, userId)
	b, err := json.Marshal(room)
	if err != nil {
		return err
	}
	pipe := rr.rdb.TxPipeline()
	pipe.Set(ctx, roomKey(roomId), b, 0)
	pipe.SAdd(ctx, userRoomsKey(userId), roomId)
	_, err = pipe.Exec(ctx)
	return err
}

func (rr *RedisRoomRepo) ListRoomsByUser(ctx context.Context, userId string) ([]models.Room, error) {
	ids, err := rr.rdb.SMembers(ctx, userRoomsKey(userId)).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []models.Room{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = roomKey(id)
	}

	// 一括取得
	vals, err := rr.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	res := make([]models.Room, 0, len(ids))
	for _, val := range vals {
		if val == nil {
			continue
		}
		b, ok := val.(string)
		if !ok {
			continue
		}
		var r models.Room
		if json.Unmarshal([]byte(b), &r) == nil {
			res = append(res, r)
		}
	}
	return res, nil
}

func (rr *RedisRoomRepo) ExistsRoomCode(ctx context.Context, code string) (bool, error) {
	n, err := rr.rdb.Exists(ctx, roomCodeKey(code)).Result()
	return n == 1, err
}
