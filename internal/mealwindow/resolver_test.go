package mealwindow_test

import (
	"testing"
	"time"

	"MessAPI/internal/mealwindow"
	"MessAPI/internal/menu"
)

func slot(start, end string) *menu.MealSlot {
	return &menu.MealSlot{Start: start, End: end, Items: []string{}}
}

// 2024-02-05 is a Monday.
func monday(hour, minute int) time.Time {
	return time.Date(2024, 2, 5, hour, minute, 0, 0, time.UTC)
}

func weekly() menu.WeeklySchedule {
	return menu.WeeklySchedule{
		{
			Day:       "Monday",
			Breakfast: slot("07:00", "09:00"),
			Lunch:     slot("12:30", "14:00"),
			Dinner:    slot("19:30", "22:00"),
		},
	}
}

func TestCurrentMeal(t *testing.T) {
	tests := []struct {
		at     time.Time
		want   menu.MealType
		wantOK bool
	}{
		{monday(6, 59), "", false},
		{monday(7, 0), menu.Breakfast, true},
		{monday(9, 0), menu.Breakfast, true},
		{monday(9, 1), "", false},
		{monday(13, 0), menu.Lunch, true},
		{monday(21, 59), menu.Dinner, true},
		{monday(23, 30), "", false},
	}
	for _, tt := range tests {
		got, ok := mealwindow.CurrentMeal(tt.at, weekly())
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("CurrentMeal(%s) = %q, %v, want %q, %v", tt.at.Format("15:04"), got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestCurrentMealWrapsPastMidnight(t *testing.T) {
	schedule := menu.WeeklySchedule{{Day: "Monday", Dinner: slot("23:00", "01:00")}}

	if got, ok := mealwindow.CurrentMeal(monday(0, 30), schedule); !ok || got != menu.Dinner {
		t.Errorf("00:30 = %q, %v, want Dinner", got, ok)
	}
	if got, ok := mealwindow.CurrentMeal(monday(23, 15), schedule); !ok || got != menu.Dinner {
		t.Errorf("23:15 = %q, %v, want Dinner", got, ok)
	}
	if _, ok := mealwindow.CurrentMeal(monday(2, 0), schedule); ok {
		t.Error("02:00 should be outside 23:00-01:00")
	}
}

func TestCurrentMealCanonicalTieBreak(t *testing.T) {
	schedule := menu.WeeklySchedule{{
		Day:       "Monday",
		Breakfast: slot("10:00", "12:00"),
		Lunch:     slot("11:00", "13:00"),
	}}
	if got, _ := mealwindow.CurrentMeal(monday(11, 30), schedule); got != menu.Breakfast {
		t.Errorf("overlap = %q, want Breakfast", got)
	}
}

func TestCurrentMealSkipsMalformedSlots(t *testing.T) {
	schedule := menu.WeeklySchedule{{
		Day:       "Monday",
		Breakfast: slot("seven", "09:00"),
		Lunch:     slot("07:00", "10:00"),
	}}
	if got, ok := mealwindow.CurrentMeal(monday(8, 0), schedule); !ok || got != menu.Lunch {
		t.Errorf("got %q, %v, want Lunch", got, ok)
	}
}

func TestNextMeal(t *testing.T) {
	tests := []struct {
		name     string
		at       time.Time
		schedule menu.WeeklySchedule
		want     mealwindow.NextMealInfo
	}{
		{"before breakfast", monday(5, 0), weekly(), mealwindow.NextMealInfo{Meal: menu.Breakfast, IsToday: true}},
		{"between breakfast and lunch", monday(10, 0), weekly(), mealwindow.NextMealInfo{Meal: menu.Lunch, IsToday: true}},
		{"after dinner", monday(23, 30), weekly(), mealwindow.NextMealInfo{Meal: menu.Breakfast, IsToday: false}},
		{"no entry for today", monday(10, 0), menu.WeeklySchedule{}, mealwindow.NextMealInfo{Meal: menu.Breakfast, IsToday: false}},
		{
			"sorted by start time",
			monday(10, 0),
			menu.WeeklySchedule{{Day: "Monday", Lunch: slot("18:00", "19:00"), Dinner: slot("15:00", "16:00")}},
			mealwindow.NextMealInfo{Meal: menu.Dinner, IsToday: true},
		},
	}
	for _, tt := range tests {
		got := mealwindow.NextMeal(tt.at, tt.schedule)
		if got != tt.want {
			t.Errorf("%s: NextMeal = %+v, want %+v", tt.name, got, tt.want)
		}
	}
}

func TestActiveMeal(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
		want mealwindow.ActiveMealInfo
	}{
		{"live breakfast", monday(8, 0), mealwindow.ActiveMealInfo{Meal: menu.Breakfast, IsLive: true, Date: "2024-02-05"}},
		{"upcoming lunch", monday(10, 0), mealwindow.ActiveMealInfo{Meal: menu.Lunch, Date: "2024-02-05"}},
		{"tomorrow breakfast", monday(23, 30), mealwindow.ActiveMealInfo{Meal: menu.Breakfast, Date: "2024-02-06", IsTomorrow: true}},
	}
	for _, tt := range tests {
		got := mealwindow.ActiveMeal(tt.at, weekly())
		if got != tt.want {
			t.Errorf("%s: ActiveMeal = %+v, want %+v", tt.name, got, tt.want)
		}
	}
}

func TestCurrentAndNextAreExclusive(t *testing.T) {
	for minute := 0; minute < 24*60; minute += 15 {
		at := monday(minute/60, minute%60)
		info := mealwindow.ActiveMeal(at, weekly())
		_, live := mealwindow.CurrentMeal(at, weekly())
		if info.IsLive != live {
			t.Fatalf("%s: IsLive = %v, CurrentMeal live = %v", at.Format("15:04"), info.IsLive, live)
		}
		if info.IsLive && info.IsTomorrow {
			t.Fatalf("%s: live meal cannot be tomorrow", at.Format("15:04"))
		}
	}
}

func TestActiveMealWithoutSchedule(t *testing.T) {
	got := mealwindow.ActiveMeal(monday(12, 0), nil)
	want := mealwindow.ActiveMealInfo{Meal: menu.Breakfast, Date: "2024-02-06", IsTomorrow: true}
	if got != want {
		t.Errorf("ActiveMeal(nil schedule) = %+v, want %+v", got, want)
	}
}
