package calendar

import "strings"

// numChinese holds the numerals used in month and day names; index 0 is
// 十 so that day names like 二十 and 三十 compose from d%10.
var numChinese = [...]string{"十", "一", "二", "三", "四", "五", "六", "七", "八", "九"}

// MonthName returns the traditional name of a month. Month 1 is 正月,
// months 11 and 12 are 冬月 and 臘月, and a leap month carries a 閏
// prefix. Returns "" for a month number outside 1..12.
func MonthName(m Month) string {
	var b strings.Builder
	if m.Leap {
		b.WriteString("閏")
	}
	switch {
	case m.Num == 1:
		b.WriteString("正")
	case m.Num >= 2 && m.Num <= 9:
		b.WriteString(numChinese[m.Num])
	case m.Num == 10:
		b.WriteString("十")
	case m.Num == 11:
		b.WriteString("冬")
	case m.Num == 12:
		b.WriteString("臘")
	default:
		return ""
	}
	b.WriteString("月")
	return b.String()
}

// DayName returns the traditional day-of-month name: 初一 through 初十,
// 十一 through 十九, 二十, 廿一 through 廿九, 三十. Returns "" outside 1..30.
func DayName(d int) string {
	var prefix string
	switch {
	case d >= 1 && d <= 10:
		prefix = "初"
	case d >= 11 && d <= 19:
		prefix = "十"
	case d == 20:
		prefix = "二"
	case d >= 21 && d <= 29:
		prefix = "廿"
	case d == 30:
		prefix = "三"
	default:
		return ""
	}
	return prefix + numChinese[d%10]
}

// TermName returns the name of the principal solar term at the given
// ecliptic longitude (a multiple of 30 degrees), or "" otherwise.
func TermName(longitude int) string {
	names := map[int]string{
		270: "冬至",
		300: "大寒",
		330: "雨水",
		0:   "春分",
		30:  "穀雨",
		60:  "小滿",
		90:  "夏至",
		120: "大暑",
		150: "處暑",
		180: "秋分",
		210: "霜降",
		240: "小雪",
	}
	return names[((longitude%360)+360)%360]
}

// SexagenaryYear returns the sexagenary cycle number of a Gregorian
// year, 1 (甲子) through 60 (癸亥).
func SexagenaryYear(year int) int {
	return (((year%60)+60)%60+2696)%60 + 1
}

// SexagenaryDay returns the sexagenary cycle number of a civil day.
func SexagenaryDay(jdn int) int {
	return (jdn+49)%60 + 1
}

// SexagenaryName renders a sexagenary cycle number as its stem-branch
// pair, e.g. 1 is 甲子 and 60 is 癸亥.
func SexagenaryName(num int) string {
	stems := [...]string{"癸", "甲", "乙", "丙", "丁", "戊", "己", "庚", "辛", "壬"}
	branches := [...]string{"亥", "子", "丑", "寅", "卯", "辰", "巳", "午", "未", "申", "酉", "戌"}
	return stems[((num%10)+10)%10] + branches[((num%12)+12)%12]
}
