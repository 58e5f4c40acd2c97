package postgres_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/kenyilewis/imgtask/internal/domain"
	"github.com/kenyilewis/imgtask/internal/platform/postgres"
	"github.com/kenyilewis/imgtask/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var imageColumns = []string{"id", "task_id", "resolution", "path", "md5", "created_at"}

func TestPostgresImageStore_Create(t *testing.T) {
	t.Parallel()

	taskID := uuid.New()
	img, err := domain.NewImage(taskID.String(), "800", "/out/a/800/abc.png", "0123456789abcdef0123456789abcdef")
	require.NoError(t, err)

	t.Run("inserts", func(t *testing.T) {
		db, mock := newMock(t)
		s := postgres.NewPostgresImageStore(db, quietLogger())

		mock.ExpectExec("INSERT INTO images").
			WithArgs(sqlmock.AnyArg(), taskID, "800", "/out/a/800/abc.png", img.MD5, img.CreatedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))

		created, err := s.Create(context.Background(), img)
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, img.MD5, created.MD5)
	})

	t.Run("unknown_task", func(t *testing.T) {
		db, mock := newMock(t)
		s := postgres.NewPostgresImageStore(db, quietLogger())

		mock.ExpectExec("INSERT INTO images").WillReturnError(newPgError("23503"))

		_, err := s.Create(context.Background(), img)
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
	})

	t.Run("malformed_task_id", func(t *testing.T) {
		db, _ := newMock(t)
		s := postgres.NewPostgresImageStore(db, quietLogger())

		bad := *img
		bad.TaskID = "nope"
		_, err := s.Create(context.Background(), &bad)
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
	})
}

func TestPostgresImageStore_FindByTaskID(t *testing.T) {
	t.Parallel()
	db, mock := newMock(t)
	s := postgres.NewPostgresImageStore(db, quietLogger())

	taskID := uuid.New()
	now := time.Now().UTC()
	mock.ExpectQuery("SELECT (.+) FROM images\\s+WHERE task_id = \\$1\\s+ORDER BY seq ASC").
		WithArgs(taskID).
		WillReturnRows(sqlmock.NewRows(imageColumns).
			AddRow(uuid.NewString(), taskID.String(), "1024", "/o/1024/a.png", "aa", now).
			AddRow(uuid.NewString(), taskID.String(), "800", "/o/800/b.png", "bb", now))

	images, err := s.FindByTaskID(context.Background(), taskID.String())

	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.Equal(t, "1024", images[0].Resolution)
	assert.Equal(t, "800", images[1].Resolution)

	empty, err := s.FindByTaskID(context.Background(), "not-a-uuid")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestPostgresImageStore_FindByMD5(t *testing.T) {
	t.Parallel()
	db, mock := newMock(t)
	s := postgres.NewPostgresImageStore(db, quietLogger())

	mock.ExpectQuery("SELECT (.+) FROM images\\s+WHERE md5 = \\$1").
		WithArgs("ff").
		WillReturnRows(sqlmock.NewRows(imageColumns).
			AddRow(uuid.NewString(), uuid.NewString(), "800", "/o/800/ff.png", "ff", time.Now()))
	mock.ExpectQuery("SELECT (.+) FROM images").
		WithArgs("00").
		WillReturnError(sql.ErrNoRows)

	img, err := s.FindByMD5(context.Background(), "ff")
	require.NoError(t, err)
	assert.Equal(t, "/o/800/ff.png", img.Path)

	_, err = s.FindByMD5(context.Background(), "00")
	assert.ErrorIs(t, err, store.ErrImageNotFound)
}
