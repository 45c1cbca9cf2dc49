package main

import (
	"fmt"
	"log"

	"korob/internal/api"
	"korob/internal/config"
	"korob/internal/dsl"
	"korob/internal/pg"
	"korob/internal/reference"
)

func main() {
	cfg := config.LoadWithPath("korob.json")

	// 1. Загружаем DSL-модели
	models, err := dsl.LoadAllModels(cfg.ModelsDir)
	if err != nil {
		log.Fatalf("Ошибка загрузки DSL: %v", err)
	}
	fmt.Printf("Загружено моделей: %d\n", len(models))

	// 2. Загружаем enum-справочники
	enumCatalog, err := reference.LoadEnumCatalog(cfg.EnumsDir)
	if err != nil {
		log.Fatalf("Ошибка загрузки enum-справочников: %v", err)
	}
	fmt.Printf("Загружено enum-справочников: %d\n", len(enumCatalog))

	// 3. Собираем схемы и инициализируем хранилище.
	// Битая схема — фатально: дальше ехать нельзя.
	storage, err := api.NewStorage(models, enumCatalog)
	if err != nil {
		log.Fatalf("Ошибка сборки схем: %v", err)
	}

	// 4. Опционально прогоняем DDL в Postgres
	if cfg.DBURL != "" && cfg.AutoMigrate {
		db, err := pg.Open(cfg.DBURL)
		if err != nil {
			log.Fatalf("Ошибка подключения к Postgres: %v", err)
		}
		ddl, err := pg.GenerateDDL(storage.Models, storage.Schemas)
		if err != nil {
			log.Fatalf("Ошибка генерации DDL: %v", err)
		}
		if err := pg.ApplyDDL(db, ddl); err != nil {
			log.Fatalf("Ошибка применения DDL: %v", err)
		}
		_ = db.Close()
	}

	// 5. Запускаем REST API сервер
	fmt.Printf("Стартуем сервер Korob на :%s...\n", cfg.Port)
	api.RunServer(":"+cfg.Port, storage)
}
