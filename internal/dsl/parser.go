package dsl

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	modelRe      = regexp.MustCompile(`^model\s+(\w+):`)
	fieldRe      = regexp.MustCompile(`^\s*([\w_]+):\s*([^\s#]+)(.*)$`)
	enumRe       = regexp.MustCompile(`^enum\[(.*)\]$`)
	moduleRe     = regexp.MustCompile(`^\s*module\s+([A-Za-z0-9_.-]+)\s*$`)
	reKeysStart  = regexp.MustCompile(`^\s*keys\s*:\s*$`)
	rePrimaryIdx = regexp.MustCompile(`^\s*primary\s*:\s*(.+)$`)
	reNamedIdx   = regexp.MustCompile(`^\s*index\s+(\w+)\s*:\s*(.+)$`)
	rePK         = regexp.MustCompile(`pk\(([^)]*)\)`)
	reSK         = regexp.MustCompile(`sk\(([^)]*)\)`)
)

// splitOptionTokens делит "k=v k2='v 2' pattern=^[A-Z0-9 _-]+$" на токены,
// не рвёт по пробелам внутри кавычек/скобок
func splitOptionTokens(s string) []string {
	var out []string
	var buf []rune
	inSingle, inDouble := false, false
	bracketDepth := 0 // внутри [ ... ] у регэкспа

	flush := func() {
		if len(buf) > 0 {
			out = append(out, string(buf))
			buf = buf[:0]
		}
	}

	for _, r := range s {
		switch r {
		case '\'':
			if !inDouble && bracketDepth == 0 {
				inSingle = !inSingle
			}
			buf = append(buf, r)
		case '"':
			if !inSingle && bracketDepth == 0 {
				inDouble = !inDouble
			}
			buf = append(buf, r)
		case '[':
			if !inSingle && !inDouble {
				bracketDepth++
			}
			buf = append(buf, r)
		case ']':
			if !inSingle && !inDouble && bracketDepth > 0 {
				bracketDepth--
			}
			buf = append(buf, r)
		default:
			// разделитель — пробел И ТОЛЬКО если мы не в кавычках и не внутри [...]
			if (r == ' ' || r == '\t') && !inSingle && !inDouble && bracketDepth == 0 {
				flush()
				continue
			}
			buf = append(buf, r)
		}
	}
	flush()
	return out
}

// splitCSV — "a, b ,c" -> ["a","b","c"] без пустых
func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// LoadModels читает один .dsl-файл и возвращает список моделей
func LoadModels(path string) ([]*Model, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var models []*Model
	var current *Model
	currentModule := ""
	inKeys := false

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		raw := scanner.Text()
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// module ...
		if m := moduleRe.FindStringSubmatch(line); m != nil {
			currentModule = m[1]
			continue
		}

		// model <Name>:
		if m := modelRe.FindStringSubmatch(line); m != nil {
			// закрыть предыдущую модель
			if current != nil {
				models = append(models, current)
			}
			current = &Model{Name: m[1], Module: currentModule}
			inKeys = false
			continue
		}
		if current == nil {
			// игнорируем всё вне модели
			continue
		}

		// ----- БЛОК KEYS -----
		if reKeysStart.MatchString(line) {
			inKeys = true
			continue
		}

		if inKeys {
			if m := rePrimaryIdx.FindStringSubmatch(line); m != nil {
				current.Indexes = append(current.Indexes, parseIndexDecl("", m[1]))
				continue
			}
			if m := reNamedIdx.FindStringSubmatch(line); m != nil {
				current.Indexes = append(current.Indexes, parseIndexDecl(m[1], m[2]))
				continue
			}
			// любая другая строка — выходим из блока keys и обработаем её ниже
			inKeys = false
			if strings.HasPrefix(line, "model ") || strings.HasPrefix(line, "module ") {
				// НЕ continue — пускай ниже обработается как model/module
			} else if !fieldRe.MatchString(raw) {
				continue
			}
		}
		// ----- КОНЕЦ БЛОКА KEYS -----

		// Атрибуты
		if m := fieldRe.FindStringSubmatch(raw); m != nil {
			name := m[1]
			rawType := m[2]
			tail := m[3] // остаток после типа (опции)

			// склейка оборванного enum[...] со скобками, если внутри были пробелы
			if strings.HasPrefix(rawType, "enum[") && !strings.Contains(rawType, "]") {
				if idx := strings.Index(tail, "]"); idx >= 0 {
					rawType = rawType + tail[:idx+1]
					tail = tail[idx+1:]
				}
			}

			// --- нормализация опций ПОСЛЕ типа ---
			optsRaw := strings.TrimSpace(tail)

			// срезать комментарий
			if i := strings.IndexByte(optsRaw, '#'); i >= 0 {
				optsRaw = strings.TrimSpace(optsRaw[:i])
			}
			// необязательный префикс "options:"
			if strings.HasPrefix(strings.ToLower(optsRaw), "options:") {
				optsRaw = strings.TrimSpace(optsRaw[len("options:"):])
			}
			// запятые считаем разделителями
			optsRaw = strings.ReplaceAll(optsRaw, ",", " ")

			optsTokens := splitOptionTokens(optsRaw)

			a := AttributeDecl{
				Name:    name,
				Type:    strings.ToLower(rawType),
				Options: map[string]string{},
			}

			// enum[...] с литеральными значениями
			if mm := enumRe.FindStringSubmatch(rawType); mm != nil {
				a.Type = "enum"
				for _, p := range strings.Split(strings.TrimSpace(mm[1]), ",") {
					s := strings.Trim(strings.TrimSpace(p), `"'`)
					if s != "" {
						a.Enum = append(a.Enum, s)
					}
				}
			}

			for _, tok := range optsTokens {
				tok = strings.TrimSpace(tok)
				if tok == "" {
					continue
				}
				// флаг без значения → "true"
				if !strings.Contains(tok, "=") {
					a.Options[strings.ToLower(tok)] = "true"
					continue
				}
				kv := strings.SplitN(tok, "=", 2)
				k := strings.ToLower(strings.TrimSpace(kv[0]))
				v := strings.TrimSpace(kv[1])
				// снять кавычки, если есть
				if len(v) >= 2 {
					if (v[0] == '"' && v[len(v)-1] == '"') || (v[0] == '\'' && v[len(v)-1] == '\'') {
						v = v[1 : len(v)-1]
					}
				}
				if k == "" {
					continue
				}
				// enum=<catalog> — отдельное поле, не опция
				if k == "enum" {
					a.EnumRef = v
					a.Type = "enum"
					continue
				}
				a.Options[k] = v
			}

			current.Attributes = append(current.Attributes, a)
			continue
		}
	}

	if current != nil {
		models = append(models, current)
	}
	return models, scanner.Err()
}

// parseIndexDecl разбирает "pk(a, b) sk(c)" в IndexDecl
func parseIndexDecl(name, body string) IndexDecl {
	decl := IndexDecl{Name: name}
	if m := rePK.FindStringSubmatch(body); m != nil {
		decl.PK = splitCSV(m[1])
	}
	if m := reSK.FindStringSubmatch(body); m != nil {
		decl.SK = splitCSV(m[1])
	}
	return decl
}

// LoadAllModels обходит каталог и собирает все модели по FQN "module.Name"
func LoadAllModels(root string) (map[string]*Model, error) {
	result := make(map[string]*Model)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(d.Name()), ".dsl") {
			return nil
		}

		ms, err := LoadModels(path)
		if err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}

		for _, m := range ms {
			if m == nil || m.Name == "" {
				return fmt.Errorf("empty model name in %s", path)
			}
			if m.Module == "" {
				return fmt.Errorf("model %q in %s has no module — add `module <name>` at the top", m.Name, path)
			}
			fqn := m.Module + "." + m.Name
			if _, exists := result[fqn]; exists {
				return fmt.Errorf("duplicate model %q in module %q (file: %s)", m.Name, m.Module, path)
			}
			result[fqn] = m
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
