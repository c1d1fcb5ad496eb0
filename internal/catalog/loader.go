package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/rxnen/eldersafe/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed default_catalog.yaml
var defaultCatalogYAML []byte

type fileQuestion struct {
	Question string `yaml:"question"`
	Hazard   string `yaml:"hazard"`
}

type fileProduct struct {
	HazardID    int    `yaml:"hazard_id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Link        string `yaml:"link"`
}

type fileRoom struct {
	Type      models.RoomType `yaml:"type"`
	Questions []fileQuestion  `yaml:"questions"`
	Products  []fileProduct   `yaml:"products"`
}

type fileExclusion struct {
	ID        int              `yaml:"id"`
	Room      models.RoomType  `yaml:"room"`
	Attribute models.Attribute `yaml:"attribute"`
}

// fileRef 重要问题引用：按 id 或按问题原文（question）指定
type fileRef struct {
	Room     models.RoomType `yaml:"room"`
	ID       *int            `yaml:"id"`
	Question string          `yaml:"question"`
}

type fileCatalog struct {
	Rooms      []fileRoom      `yaml:"rooms"`
	Exclusions []fileExclusion `yaml:"exclusions"`
	Important  struct {
		Mobility []fileRef `yaml:"mobility"`
		Vision   []fileRef `yaml:"vision"`
		Hearing  []fileRef `yaml:"hearing"`
	} `yaml:"important"`
}

// Default 加载内置目录
func Default() (*Catalog, error) {
	return Parse(defaultCatalogYAML)
}

// Load 从文件加载目录；path 为空时使用内置目录
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()

	var fc fileCatalog
	if err := yaml.NewDecoder(f).Decode(&fc); err != nil {
		return nil, fmt.Errorf("failed to decode catalog %s: %w", path, err)
	}
	return build(&fc)
}

// Parse 从 YAML 数据构建目录
func Parse(data []byte) (*Catalog, error) {
	var fc fileCatalog
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	return build(&fc)
}

func build(fc *fileCatalog) (*Catalog, error) {
	c := &Catalog{
		rooms:      make(map[models.RoomType]*roomCatalog, len(fc.Rooms)),
		exclusions: make(map[ref]models.Attribute, len(fc.Exclusions)),
		important: map[Set]map[ref]struct{}{
			SetMobility: {},
			SetVision:   {},
			SetHearing:  {},
		},
	}

	for _, fr := range fc.Rooms {
		if !fr.Type.Valid() {
			return nil, fmt.Errorf("unknown room type in catalog: %q", fr.Type)
		}
		rc := &roomCatalog{
			questions: make([]Question, 0, len(fr.Questions)),
			products:  make([]Product, 0, len(fr.Products)),
		}
		for i, q := range fr.Questions {
			rc.questions = append(rc.questions, Question{Index: i, Question: q.Question, Hazard: q.Hazard})
		}
		for _, p := range fr.Products {
			rc.products = append(rc.products, Product{
				HazardID:    p.HazardID,
				Name:        p.Name,
				Description: p.Description,
				Link:        p.Link,
			})
		}
		c.rooms[fr.Type] = rc
	}

	for _, e := range fc.Exclusions {
		if !e.Attribute.Valid() {
			return nil, fmt.Errorf("unknown exclusion attribute %q for %s/%d", e.Attribute, e.Room, e.ID)
		}
		c.exclusions[ref{room: e.Room, id: e.ID}] = e.Attribute
	}

	c.addRefs(SetMobility, fc.Important.Mobility)
	c.addRefs(SetVision, fc.Important.Vision)
	c.addRefs(SetHearing, fc.Important.Hearing)

	return c, nil
}

// addRefs 登记重要问题；按问题原文引用时解析为序号，无法解析的引用忽略（视为不重要）
func (c *Catalog) addRefs(set Set, refs []fileRef) {
	for _, r := range refs {
		if r.ID != nil {
			c.important[set][ref{room: r.Room, id: *r.ID}] = struct{}{}
			continue
		}
		rc, ok := c.rooms[r.Room]
		if !ok {
			continue
		}
		for _, q := range rc.questions {
			if q.Question == r.Question {
				c.important[set][ref{room: r.Room, id: q.Index}] = struct{}{}
				break
			}
		}
	}
}
