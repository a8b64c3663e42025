package newhouse

import (
	"testing"

	"newhouse-analytics/services"
	"newhouse-analytics/utils"
)

func TestBuildRecordFeedsNormalizer(t *testing.T) {
	c := card{
		Name:     "翡翠湾",
		Type:     "住宅",
		Location: []string{"浦东", "张江路", "地铁站旁", "ignored"},
		Rooms:    []string{"3室2厅", "4室2厅"},
		Area:     "80-100㎡",
		Total:    "总价120万起",
		Unit:     "15000元/㎡",
	}

	rec := buildRecord(c)
	row := services.NewNormalizer(utils.New(utils.LevelError)).Normalize(rec)

	if row.Name != "翡翠湾" || row.District != "浦东" || row.Street != "张江路" {
		t.Errorf("unexpected row: %+v", row)
	}
	if !row.Area.Valid || row.Area.Int64 != 90 {
		t.Errorf("area: got %+v, want 90", row.Area)
	}
	if !row.UnitPrice.Valid || row.UnitPrice.Int64 != 15000 {
		t.Errorf("unit price: got %+v, want 15000", row.UnitPrice)
	}
}

func TestDecodeCards(t *testing.T) {
	cards, err := decodeCards(`[{"name":"A","location":["浦东"],"rooms":[],"area":"75㎡"}]`)
	if err != nil {
		t.Fatal(err)
	}
	if len(cards) != 1 || cards[0].Name != "A" {
		t.Errorf("unexpected cards: %+v", cards)
	}

	if _, err := decodeCards(`{broken`); err == nil {
		t.Error("malformed card JSON should fail")
	}
}
