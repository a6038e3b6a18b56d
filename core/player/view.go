package player

import "Musarty/model"

// ListStatus tells the page what to show in place of the station list.
type ListStatus string

const (
	ListLoading ListStatus = "loading"
	ListEmpty   ListStatus = "empty"
	ListReady   ListStatus = "ready"
)

const (
	HeadingPopular = "Popular Stations"
	HeadingSearch  = "Search Results"
	EmptyMessage   = "No stations found"
	nowPlayingTags = 3
)

// View is the render model pushed to the page.
type View struct {
	Heading      string      `json:"heading"`
	ListStatus   ListStatus  `json:"listStatus"`
	EmptyMessage string      `json:"emptyMessage,omitempty"`
	Items        []ListItem  `json:"items"`
	Query        string      `json:"query"`
	Loading      bool        `json:"loading"`
	NowPlaying   *NowPlaying `json:"nowPlaying"`
}

// ListItem is one row of the station list.
type ListItem struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Country   string `json:"country"`
	Tag       string `json:"tag,omitempty"`
	Votes     string `json:"votes"`
	IconURL   string `json:"iconUrl,omitempty"` // empty means placeholder glyph
	Selected  bool   `json:"selected"`
	Indicator bool   `json:"indicator"` // animated playing bars
}

// NowPlaying is the card for the selected station.
type NowPlaying struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Country     string   `json:"country"`
	Tags        []string `json:"tags"`
	IconURL     string   `json:"iconUrl,omitempty"`
	Quality     string   `json:"quality,omitempty"`
	Status      Status   `json:"status"`
	Playing     bool     `json:"playing"`
	Muted       bool     `json:"muted"`
	Volume      float64  `json:"volume"`
	Slider      float64  `json:"slider"` // 0 while muted
	StreamError string   `json:"streamError,omitempty"`
}

// IconFunc maps a station to the icon address the page should load.
type IconFunc func(model.Station) string

// DirectIcon uses the station's own icon address when it is usable.
func DirectIcon(st model.Station) string {
	if st.HasIcon() {
		return st.IconURL
	}
	return ""
}

// BuildView derives the render model from s.
func BuildView(s State, icon IconFunc) View {
	if icon == nil {
		icon = DirectIcon
	}

	v := View{
		Heading: HeadingPopular,
		Items:   []ListItem{},
		Query:   s.Query,
		Loading: s.Loading,
	}
	if s.Query != "" {
		v.Heading = HeadingSearch
	}

	switch {
	case s.Loading:
		v.ListStatus = ListLoading
	case len(s.Stations) == 0:
		v.ListStatus = ListEmpty
		v.EmptyMessage = EmptyMessage
	default:
		v.ListStatus = ListReady
		for _, st := range s.Stations {
			selected := s.Selected != nil && s.Selected.ID == st.ID
			v.Items = append(v.Items, ListItem{
				ID:        st.ID,
				Name:      st.Name,
				Country:   st.Country,
				Tag:       st.FirstTag(),
				Votes:     st.VoteLabel(),
				IconURL:   icon(st),
				Selected:  selected,
				Indicator: selected && s.Playing,
			})
		}
	}

	if s.Selected != nil {
		st := *s.Selected
		tags := st.TagList(nowPlayingTags)
		if tags == nil {
			tags = []string{}
		}
		v.NowPlaying = &NowPlaying{
			ID:          st.ID,
			Name:        st.Name,
			Country:     st.Country,
			Tags:        tags,
			IconURL:     icon(st),
			Quality:     st.QualityLabel(),
			Status:      s.Status(),
			Playing:     s.Playing,
			Muted:       s.Muted,
			Volume:      s.Volume,
			Slider:      s.EffectiveVolume(),
			StreamError: s.StreamError,
		}
	}
	return v
}

// View builds the render model from the current state.
func (c *Controller) View(icon IconFunc) View {
	return BuildView(c.Snapshot(), icon)
}
