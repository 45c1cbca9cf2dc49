package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// POST /api/:module/:model
func CreateHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		rawModule := c.Param("module")
		rawModel := c.Param("model")
		fqn, ok := storage.NormalizeModelName(rawModule, rawModel)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Model not found"})
			return
		}
		sch := storage.Schemas[fqn]

		var obj map[string]any
		if err := c.ShouldBindJSON(&obj); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
			return
		}

		// защита системных полей (id/created_at/...)
		if ers := checkSystemFields(obj); len(ers) > 0 {
			c.JSON(http.StatusBadRequest, gin.H{"errors": ers})
			return
		}

		// set-хуки, затем тотальная валидация создания — БЕЗ локов
		obj = sch.ApplySetters(obj)
		validated, err := sch.CheckCreate(obj)
		if err != nil {
			status, fe := fieldErrorFrom(err)
			c.JSON(status, gin.H{"errors": []FieldError{fe}})
			return
		}

		// Запись — под write-lock
		storage.mu.Lock()
		defer storage.mu.Unlock()

		if storage.Data[fqn] == nil {
			storage.Data[fqn] = make(map[string]*Record)
		}

		id := storage.newID()
		now := time.Now().UTC()
		rec := &Record{
			ID:        id,
			Version:   1,
			CreatedAt: now,
			UpdatedAt: now,
			Fields:    sch.TranslateToFields(validated),
		}
		storage.Data[fqn][id] = rec
		c.JSON(http.StatusCreated, flatten(sch, rec))
	}
}

// GET /api/:module/:model
func ListHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		mod := c.Param("module")
		mdl := c.Param("model")

		fqn, ok := storage.NormalizeModelName(mod, mdl)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Model not found"})
			return
		}
		sch := storage.Schemas[fqn]

		// читаем все «живые» записи и сразу разворачиваем в логический вид
		storage.mu.RLock()
		recMap := storage.Data[fqn]
		rows := make([]map[string]any, 0, len(recMap))
		for _, r := range recMap {
			if !r.Deleted {
				rows = append(rows, flatten(sch, r))
			}
		}
		storage.mu.RUnlock()

		lp := parseListParams(c.Request.URL.Query())
		rows = filterRows(rows, lp)
		sortRowsMultiNulls(rows, lp.Sort, lp.Nulls)

		start := lp.Offset
		if start > len(rows) {
			start = len(rows)
		}
		end := start + lp.Limit
		if end > len(rows) {
			end = len(rows)
		}

		c.Header("X-Total-Count", strconv.Itoa(len(rows)))
		c.JSON(http.StatusOK, rows[start:end])
	}
}

// GET /api/:module/:model/:id
func GetOneHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		mod := c.Param("module")
		mdl := c.Param("model")
		id := c.Param("id")

		fqn, ok := storage.NormalizeModelName(mod, mdl)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Model not found"})
			return
		}
		sch := storage.Schemas[fqn]

		storage.mu.RLock()
		rec := storage.Data[fqn][id]
		storage.mu.RUnlock()
		if rec == nil || rec.Deleted {
			c.JSON(http.StatusNotFound, gin.H{"errors": []FieldError{ferr(ErrNotFound, "id", "Record not found")}})
			return
		}
		c.Header("ETag", fmt.Sprintf(`"%d"`, rec.Version))
		c.JSON(http.StatusOK, flatten(sch, rec))
	}
}

// PUT /api/:module/:model/:id — полная замена изменяемых атрибутов.
// readonly/ключевые присылать нельзя: их значения переносятся из текущей записи.
func UpdateHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		mod := c.Param("module")
		mdl := c.Param("model")
		id := c.Param("id")

		fqn, ok := storage.NormalizeModelName(mod, mdl)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Model not found"})
			return
		}
		sch := storage.Schemas[fqn]

		var obj map[string]any
		if err := c.ShouldBindJSON(&obj); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
			return
		}

		// читаем ожидаемую версию ДО того, как уберём version из payload
		expVer, okExp := readExpectedVersion(c, obj)

		if ers := checkSystemFields(obj); len(ers) > 0 {
			c.JSON(http.StatusBadRequest, gin.H{"errors": ers})
			return
		}

		// текущая запись под RLock
		storage.mu.RLock()
		rec := storage.Data[fqn][id]
		curVer := int64(0)
		var current map[string]any
		if rec != nil && !rec.Deleted {
			curVer = rec.Version
			current = logicalView(sch, rec)
		}
		storage.mu.RUnlock()
		if current == nil {
			c.JSON(http.StatusNotFound, gin.H{"errors": []FieldError{ferr(ErrNotFound, "id", "Record not found")}})
			return
		}

		if !okExp || expVer != curVer {
			c.JSON(http.StatusConflict, gin.H{
				"errors": []FieldError{ferr(ErrVersionConflict, "version",
					fmt.Sprintf("expected version %d", curVer))},
			})
			return
		}

		// set-хуки и частичная валидация: readonly в payload — фатально
		obj = sch.ApplySetters(obj)
		validated, err := sch.CheckUpdate(obj)
		if err != nil {
			status, fe := fieldErrorFrom(err)
			c.JSON(status, gin.H{"errors": []FieldError{fe}})
			return
		}

		// полная замена: validated + readonly-атрибуты из текущей записи,
		// затем тотальный проход — required/default добьют недостающее
		replacement := make(map[string]any, len(validated)+4)
		for _, name := range sch.ReadOnly() {
			if v, ok := current[name]; ok {
				replacement[name] = v
			}
		}
		for k, v := range validated {
			replacement[k] = v
		}
		full, err := sch.CheckCreate(replacement)
		if err != nil {
			status, fe := fieldErrorFrom(err)
			c.JSON(status, gin.H{"errors": []FieldError{fe}})
			return
		}

		// применяем под write-lock с повторной проверкой версии (на случай гонки)
		now := time.Now().UTC()
		storage.mu.Lock()
		rec2 := storage.Data[fqn][id]
		if rec2 == nil || rec2.Deleted {
			storage.mu.Unlock()
			c.JSON(http.StatusNotFound, gin.H{"errors": []FieldError{ferr(ErrNotFound, "id", "Record not found")}})
			return
		}
		if rec2.Version != curVer {
			storage.mu.Unlock()
			c.JSON(http.StatusConflict, gin.H{
				"errors": []FieldError{ferr(ErrVersionConflict, "version",
					fmt.Sprintf("expected version %d", rec2.Version))},
			})
			return
		}
		rec2.Fields = sch.TranslateToFields(full)
		rec2.Version++
		rec2.UpdatedAt = now
		storage.mu.Unlock()

		c.JSON(http.StatusOK, flatten(sch, rec2))
	}
}

// PATCH /api/:module/:model/:id — частичное обновление
func UpdatePartialHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		mod := c.Param("module")
		mdl := c.Param("model")
		id := c.Param("id")

		fqn, ok := storage.NormalizeModelName(mod, mdl)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Model not found"})
			return
		}
		sch := storage.Schemas[fqn]

		var patch map[string]any
		if err := c.ShouldBindJSON(&patch); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
			return
		}

		expVer, okExp := readExpectedVersion(c, patch)

		if ers := checkSystemFields(patch); len(ers) > 0 {
			c.JSON(http.StatusBadRequest, gin.H{"errors": ers})
			return
		}

		storage.mu.RLock()
		rec := storage.Data[fqn][id]
		if rec == nil || rec.Deleted {
			storage.mu.RUnlock()
			c.JSON(http.StatusNotFound, gin.H{"errors": []FieldError{ferr(ErrNotFound, "id", "Record not found")}})
			return
		}
		curVer := rec.Version
		storage.mu.RUnlock()

		if !okExp || expVer != curVer {
			c.JSON(http.StatusConflict, gin.H{
				"errors": []FieldError{ferr(ErrVersionConflict, "version",
					fmt.Sprintf("expected version %d", curVer))},
			})
			return
		}

		// merge-семантика движка: отсутствующие атрибуты пропускаются,
		// присланный readonly — отказ всему вызову
		patch = sch.ApplySetters(patch)
		validated, err := sch.CheckUpdate(patch)
		if err != nil {
			status, fe := fieldErrorFrom(err)
			c.JSON(status, gin.H{"errors": []FieldError{fe}})
			return
		}
		delta := sch.TranslateToFields(validated)

		now := time.Now().UTC()
		storage.mu.Lock()
		rec2 := storage.Data[fqn][id]
		if rec2 == nil || rec2.Deleted {
			storage.mu.Unlock()
			c.JSON(http.StatusNotFound, gin.H{"errors": []FieldError{ferr(ErrNotFound, "id", "Record not found")}})
			return
		}
		if rec2.Version != curVer {
			storage.mu.Unlock()
			c.JSON(http.StatusConflict, gin.H{
				"errors": []FieldError{ferr(ErrVersionConflict, "version",
					fmt.Sprintf("expected version %d", rec2.Version))},
			})
			return
		}
		for k, v := range delta {
			rec2.Fields[k] = v
		}
		rec2.Version++
		rec2.UpdatedAt = now
		storage.mu.Unlock()

		c.JSON(http.StatusOK, flatten(sch, rec2))
	}
}

// DELETE /api/:module/:model/:id  (soft delete)
func DeleteHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		mod := c.Param("module")
		mdl := c.Param("model")
		id := c.Param("id")

		fqn, ok := storage.NormalizeModelName(mod, mdl)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Model not found"})
			return
		}

		storage.mu.Lock()
		rec := storage.Data[fqn][id]
		if rec == nil || rec.Deleted {
			storage.mu.Unlock()
			c.JSON(http.StatusNotFound, gin.H{"errors": []FieldError{ferr(ErrNotFound, "id", "Record not found")}})
			return
		}
		rec.Deleted = true
		rec.UpdatedAt = time.Now().UTC()
		rec.Version++
		storage.mu.Unlock()

		c.Status(http.StatusNoContent)
	}
}

// POST /api/:module/:model/:id/restore
func RestoreHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		mod := c.Param("module")
		mdl := c.Param("model")
		id := c.Param("id")

		fqn, ok := storage.NormalizeModelName(mod, mdl)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Model not found"})
			return
		}
		sch := storage.Schemas[fqn]

		storage.mu.Lock()
		defer storage.mu.Unlock()

		rec, ok := storage.Data[fqn][id]
		if !ok || rec == nil {
			c.JSON(http.StatusNotFound, gin.H{"errors": []FieldError{ferr(ErrNotFound, "id", "Record not found")}})
			return
		}
		if rec.Deleted {
			rec.Deleted = false
			rec.UpdatedAt = time.Now().UTC()
			rec.Version++
		}
		c.JSON(http.StatusOK, flatten(sch, rec))
	}
}

// GET /api/:module/:model/count
func CountHandler(storage *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		mod := c.Param("module")
		mdl := c.Param("model")
		fqn, ok := storage.NormalizeModelName(mod, mdl)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Model not found"})
			return
		}
		sch := storage.Schemas[fqn]

		storage.mu.RLock()
		recMap := storage.Data[fqn]
		rows := make([]map[string]any, 0, len(recMap))
		for _, r := range recMap {
			if !r.Deleted {
				rows = append(rows, flatten(sch, r))
			}
		}
		storage.mu.RUnlock()

		rows = filterRows(rows, parseListParams(c.Request.URL.Query()))
		c.JSON(http.StatusOK, gin.H{"total": len(rows)})
	}
}

// проверка системных полей: их клиент задавать не может.
// Особый случай: "version" разрешаем как hint для optimistic lock,
// но СНИМАЕМ из payload, чтобы не уехал в данные.
func checkSystemFields(obj map[string]any) (errs []FieldError) {
	sys := []string{"id", "created_at", "updated_at", "version"}
	for _, k := range sys {
		if _, ok := obj[k]; ok {
			if k == "version" {
				delete(obj, k)
				continue
			}
			errs = append(errs, ferr("readonly_field", k, "Field '"+k+"' is read-only"))
		}
	}
	return
}

// readExpectedVersion читает ожидаемую версию из If-Match либо из payload["version"].
func readExpectedVersion(c *gin.Context, payload map[string]any) (int64, bool) {
	// 1) If-Match: допускаем просто число, кавычки и weak-префикс W/"3"
	ifMatch := strings.TrimSpace(c.GetHeader("If-Match"))
	if ifMatch != "" {
		ifMatch = strings.TrimPrefix(ifMatch, "W/")
		ifMatch = strings.Trim(ifMatch, `"'`)
		if v, err := strconv.ParseInt(ifMatch, 10, 64); err == nil {
			return v, true
		}
	}
	// 2) из тела: "version": <int>
	if payload != nil {
		if raw, ok := payload["version"]; ok {
			switch t := raw.(type) {
			case float64:
				// JSON number → float64
				return int64(t), true
			case string:
				if v, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64); err == nil {
					return v, true
				}
			}
		}
	}
	return 0, false
}
