// 题库批量导入脚本
//
// 引擎侧只读题库，题目内容由本脚本从JSON文件导入。
// 每道题经过与教师端接口相同的3PL参数校验，非法题目跳过并计数。
//
// 用法: go run scripts/import_questions.go <questions.json>

package main

import (
	"encoding/json"
	"log"
	"os"

	"exam_prep_backend/internal/config"
	"exam_prep_backend/internal/model"
	"exam_prep_backend/internal/repository"
	"exam_prep_backend/internal/service"
	"exam_prep_backend/pkg/database"
	"exam_prep_backend/pkg/logger"
)

type importFile struct {
	Questions []model.Question `json:"questions"`
}

func main() {
	if len(os.Args) < 2 {
		log.Fatal("用法: go run scripts/import_questions.go <questions.json>")
	}

	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}
	logger.InitLogger(cfg)

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}

	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		log.Fatalf("无法读取题库文件: %v", err)
	}

	var file importFile
	if err := json.Unmarshal(data, &file); err != nil {
		log.Fatalf("解析题库文件失败: %v", err)
	}

	questions := service.NewQuestionService(repository.NewQuestionRepository(db))

	imported, skipped := 0, 0
	for i := range file.Questions {
		q := file.Questions[i]
		q.ID = 0
		if err := questions.Create(&q); err != nil {
			log.Printf("第%d题跳过: %v", i+1, err)
			skipped++
			continue
		}
		imported++
	}

	log.Printf("导入完成: %d 成功, %d 跳过", imported, skipped)
}
