package pg

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

// Интеграционный прогон: контейнерный postgres, реальный DDL.
// go test -short его пропускает.
func TestApplyDDLPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test: requires docker")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	pgc, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("korob"),
		postgres.WithUsername("korob"),
		postgres.WithPassword("korob"),
		postgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgc.Terminate(context.Background()) })

	url, err := pgc.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := Open(url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	models, schemas := buildTicket(t)
	ddl, err := GenerateDDL(models, schemas)
	require.NoError(t, err)

	require.NoError(t, ApplyDDL(db, ddl))
	// idempotent: повторный прогон не падает
	require.NoError(t, ApplyDDL(db, ddl))

	var cnt int
	err = db.QueryRowContext(ctx,
		`select count(*) from information_schema.columns
		 where table_schema = 'crm' and table_name = 'tickets'`).Scan(&cnt)
	require.NoError(t, err)
	// 4 системных + 6 атрибутов + pk/sk/byscore_pk
	assert.Equal(t, 13, cnt)

	var uniq bool
	err = db.QueryRowContext(ctx,
		`select indisunique from pg_index i
		 join pg_class c on c.oid = i.indexrelid
		 where c.relname = 'ticket_key_uq'`).Scan(&uniq)
	require.NoError(t, err)
	assert.True(t, uniq)

	// запись/чтение через сгенерированную таблицу
	_, err = db.ExecContext(ctx,
		`insert into "crm"."tickets" ("id","version","created_at","updated_at","owner","subject")
		 values ('01TEST', 1, now(), now(), 'u1', 'hello')`)
	require.NoError(t, err)

	var subject string
	err = db.QueryRowContext(ctx,
		`select "subject" from "crm"."tickets" where "id" = '01TEST'`).Scan(&subject)
	require.NoError(t, err)
	assert.Equal(t, "hello", subject)
}
